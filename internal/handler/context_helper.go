package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hakplan/hakplan-api/internal/middleware"
	"github.com/hakplan/hakplan-api/internal/models"
)

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

// scheduleGradeFor resolves the cohort scope for schedule reads. Students
// are pinned to their own cohort; admins may pass any grade or none.
func scheduleGradeFor(c *gin.Context, claims *models.JWTClaims) string {
	if claims == nil {
		return ""
	}
	if claims.Role == models.RoleStudent {
		return claims.Grade
	}
	return c.Query("grade")
}
