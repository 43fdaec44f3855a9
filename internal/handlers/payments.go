package handlers

import (
	"log/slog"
	"net/http"

	"tessera/internal/models"

	"github.com/gin-gonic/gin"
)

// OnPaymentUpdates - POST /payments/notifications
// Webhook the payment gateway posts settlement callbacks to. Always
// acknowledges with 200 unless storage failed: a 5xx makes the gateway
// retry, which is exactly what we want only for transient failures.
// Duplicate and out-of-order callbacks are settled inside the service.
func (h *Handlers) OnPaymentUpdates(c *gin.Context) {
	var payload models.PaymentNotificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slog.Info("Received payment notification",
		"payment_id", payload.PaymentID, "status", payload.Status)

	if err := h.services.Settlement.HandlePaymentNotification(c.Request.Context(), &payload); err != nil {
		slog.Error("Failed to process payment notification",
			"payment_id", payload.PaymentID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// NotifyPaymentCompleted - GET /payments/success
// Browser redirect target after a hosted payment page. Settlement itself
// rides the webhook; this only logs the round-trip.
func (h *Handlers) NotifyPaymentCompleted(c *gin.Context) {
	orderID := c.Query("orderId")
	slog.Info("Payment completed redirect", "order_id", orderID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NotifyPaymentFailed - GET /payments/fail
func (h *Handlers) NotifyPaymentFailed(c *gin.Context) {
	orderID := c.Query("orderId")
	slog.Info("Payment failed redirect", "order_id", orderID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
