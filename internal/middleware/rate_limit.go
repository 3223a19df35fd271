package middleware

import (
	"fmt"
	"net/http"
	"time"

	"storefront_back_end/internal/cache"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	APIMaxRequests     = 100 // Par minute pour les endpoints généraux
	WebhookMaxRequests = 300
	APICooldown        = 1 * time.Minute
)

// APIRateLimit limite le nombre de requêtes par IP sur une fenêtre d'une minute.
func APIRateLimit(limiter *cache.RateLimiter, max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "api_requests:" + c.ClientIP()

		requests, ttl, err := limiter.Increment(c.Request.Context(), key, APICooldown)
		if err != nil {
			// Redis indisponible : on laisse passer plutôt que de bloquer l'API
			zap.L().Warn("⚠️ Rate limit indisponible", zap.Error(err))
			c.Next()
			return
		}

		remaining := max - requests
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if requests > max {
			retryAfter := int(ttl.Seconds())
			if retryAfter <= 0 {
				retryAfter = int(APICooldown.Seconds())
			}
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
