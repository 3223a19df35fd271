package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// RequireRole n'autorise que les rôles listés. À placer après AuthRequired.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
			return
		}
		c.Next()
	}
}

// RequireAdmin vérifie que l'utilisateur a le rôle "admin"
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}

// RequireStaff accepte les administrateurs et les employés.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(RoleAdmin, RoleEmployee)
}
