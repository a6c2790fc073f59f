package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/emu-ics/report-portal-api/internal/models"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	c, rec := newTestContext()
	c.Set(ContextUserKey, &models.JWTClaims{Role: models.RoleAdmin})

	RequireRoles(models.RoleAdmin)(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRolesRejectsOtherRole(t *testing.T) {
	c, rec := newTestContext()
	c.Set(ContextUserKey, &models.JWTClaims{Role: models.RoleOffice})

	RequireRoles(models.RoleAdmin)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesRejectsAnonymous(t *testing.T) {
	c, rec := newTestContext()

	RequireRoles(models.RoleAdmin)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type staticValidator struct {
	claims *models.JWTClaims
	err    error
}

func (s *staticValidator) ValidateToken(string) (*models.JWTClaims, error) {
	return s.claims, s.err
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	c, rec := newTestContext()

	JWT(&staticValidator{claims: &models.JWTClaims{}})(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTStoresClaims(t *testing.T) {
	c, _ := newTestContext()
	c.Request.Header.Set("Authorization", "Bearer some-token")
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleOffice, Office: "Registrar"}

	JWT(&staticValidator{claims: claims})(c)

	assert.False(t, c.IsAborted())
	stored, ok := c.Get(ContextUserKey)
	assert.True(t, ok)
	assert.Equal(t, claims, stored)
}
