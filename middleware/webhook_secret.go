package middleware

import (
	"crypto/subtle"
	"net/http"

	"guestara/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookSecretMiddleware rejects webhook calls that don't carry the shared
// secret configured for the voice platform. With no secret configured the
// check is skipped, which keeps local development friction-free.
func WebhookSecretMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.AppConfig.VapiWebhookSecret
		if secret == "" {
			c.Next()
			return
		}

		provided := c.GetHeader("X-Vapi-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			zap.L().Warn("Webhook call with bad or missing secret", zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
