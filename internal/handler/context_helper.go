package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/emu-ics/report-portal-api/internal/middleware"
	"github.com/emu-ics/report-portal-api/internal/models"
)

// claimsFromContext extracts the authenticated user placed by the JWT
// middleware. Returns nil for anonymous requests.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
