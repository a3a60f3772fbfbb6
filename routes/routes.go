package routes

import (
	"time"

	"guestara/handlers"
	"guestara/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes registers the voice platform webhook endpoints.
func RegisterWebhookRoutes(r *gin.Engine, wh *handlers.WebhookHandler) {
	webhook := r.Group("/webhook")
	webhook.Use(middleware.WebhookSecretMiddleware())
	{
		webhook.POST("/vapi", wh.HandleWebhook)
		webhook.GET("/test", wh.TestWebhook)
	}
}

// RegisterUserRoutes registers guest-account endpoints.
func RegisterUserRoutes(r *gin.Engine, uh *handlers.UserHandler) {
	users := r.Group("/users")
	{
		users.POST("/signup", uh.Signup)
		users.POST("/add-payment", uh.AddPaymentMethod)
		users.GET("/email/:email", uh.GetUserByEmail)
	}
}

// RegisterHealthRoutes registers the liveness endpoint.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// CORSMiddleware returns the CORS policy applied to the whole router.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Vapi-Secret"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
