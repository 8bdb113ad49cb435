package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/prasetya-dev/shift-ops-api/internal/middleware"
	"github.com/prasetya-dev/shift-ops-api/internal/models"
)

// claimsFromContext returns the authenticated caller's claims, or nil when
// the request carried no valid token.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
