package payments

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the authenticated payment endpoints
func RegisterRoutes(rg *gin.RouterGroup, ctrl *Controller) {
	rg.POST("/bookings/:booking_id/payments", ctrl.InitiatePayment)
	rg.GET("/bookings/:booking_id/payments", ctrl.ListTransactions)
	rg.POST("/payments/confirm", ctrl.ConfirmPayment)
}

// RegisterWebhookRoutes wires the unauthenticated gateway callback.
// Gateways sign their payloads; signature verification replaces auth.
func RegisterWebhookRoutes(rg *gin.RouterGroup, ctrl *Controller) {
	rg.POST("/payments/webhook", ctrl.Webhook)
}
