package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers and the settings routes need.
type HandlerBundle struct {
	// WhatsApp webhook endpoints
	VerifyWebhookHandler  gin.HandlerFunc
	ReceiveWebhookHandler gin.HandlerFunc

	// AppSecret signs webhook deliveries; empty disables signature checks.
	AppSecret string

	HealthHandler gin.HandlerFunc
}
