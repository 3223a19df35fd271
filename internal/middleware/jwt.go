package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Clés posées dans le contexte gin par AuthRequired
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// AuthRequired vérifie le jeton HMAC émis par le service d'authentification
// et expose user_id, email et role aux handlers.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			zap.L().Debug("❌ Erreur parsing JWT", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id manquant"})
			return
		}

		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		c.Set(ContextUserID, userID)
		c.Set(ContextEmail, email)
		c.Set(ContextRole, role)
		c.Next()
	}
}

// bearerToken lit l'en-tête Authorization, ou le paramètre token pour les WebSockets
// dont le navigateur ne peut pas fixer les en-têtes.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" && c.IsWebsocket() {
			return token, true
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
		return "", false
	}
	return parts[1], true
}
