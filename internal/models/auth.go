package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest carries user credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// UserInfo is the public projection of a user returned after login.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
	Office   string   `json:"office"`
	Campus   string   `json:"campus"`
}

// LoginResponse returns the issued token and user context.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// JWTClaims is the resolved request context every core operation assumes:
// who is acting, from which office and campus, with which role.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Office   string   `json:"office"`
	Campus   string   `json:"campus"`
	jwt.RegisteredClaims
}
