package handlers

import (
	"log/slog"
	"net/http"

	"tessera/internal/errors"
	"tessera/internal/external"
	"tessera/internal/middleware"
	"tessera/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateOrder - POST /api/orders
// Reserves tickets and starts the 15 minute payment hold.
func (h *Handlers) CreateOrder(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.services.Reservation.Reserve(c.Request.Context(), userID, &req)
	if err != nil {
		switch err {
		case errors.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket class not found"})
		case errors.ErrInvalidQuantity, errors.ErrNotOnSaleYet:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.ErrInsufficientInventory:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			slog.Error("Failed to create order", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListOrders - GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orders, err := h.services.Settlement.ListOrders(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to list orders", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder - GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.services.Settlement.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		if err == errors.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("Failed to get order", "order_id", orderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// Checkout - POST /api/orders/:id/checkout
// Creates a payment intent for the order and hands the client secret back.
func (h *Handlers) Checkout(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	resp, err := h.services.Settlement.Checkout(c.Request.Context(), userID, orderID)
	if err != nil {
		switch err {
		case errors.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.ErrOrderNotPayable:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.ErrOrderExpired:
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		default:
			slog.Error("Failed to checkout order", "order_id", orderID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to checkout order"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MockConfirm - POST /api/orders/:id/mock-confirm
// Only available when the process runs with the mock payment provider,
// where there is no gateway to call the webhook. Drives the same
// settlement path the webhook would.
func (h *Handlers) MockConfirm(c *gin.Context) {
	if _, ok := h.provider.(*external.MockProvider); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.services.Settlement.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		if err == errors.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("Failed to get order", "order_id", orderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get order"})
		return
	}
	if order.PaymentIntentID == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "order has no payment intent"})
		return
	}

	finalized, err := h.services.Settlement.Finalize(c.Request.Context(), *order.PaymentIntentID)
	if err != nil {
		slog.Error("Failed to finalize order", "order_id", orderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize order"})
		return
	}
	if finalized == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "order is not awaiting payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "confirmed", "order_id": orderID})
}
