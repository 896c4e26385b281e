package middleware

import (
	"net/http"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures that the authenticated user has the specified role
func RequireRole(requiredRole domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if !identity.IsAuthenticated() {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if identity.Role != requiredRole {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
