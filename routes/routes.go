package routes

import (
	"time"

	"clinicbot/handlers"
	"clinicbot/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes registers the WhatsApp webhook endpoints.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	webhook := r.Group("/webhook")
	{
		webhook.GET("", hb.VerifyWebhookHandler)
		webhook.POST("", middleware.WebhookSignatureMiddleware(hb.AppSecret), hb.ReceiveWebhookHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	h := hb.HealthHandler
	if h == nil {
		h = handlers.HealthHandler
	}
	r.GET("/health", h)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Hub-Signature-256"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterWebhookRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
