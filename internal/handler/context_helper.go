package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siliya-electrical-api/internal/middleware"
	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
	"github.com/noah-isme/siliya-electrical-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

// requireClaims writes 401 and reports false when the request is anonymous.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Validation(err, message))
		return false
	}
	return true
}
