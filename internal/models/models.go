package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateEventRequest - request body for creating a catalog event
type CreateEventRequest struct {
	Name         string    `json:"name" binding:"required"`
	Description  *string   `json:"description,omitempty"`
	StartsAt     time.Time `json:"starts_at" binding:"required"`
	EndsAt       time.Time `json:"ends_at" binding:"required"`
	SaleStartsAt time.Time `json:"sale_starts_at" binding:"required"`
}

// CreateTicketClassRequest - request body for creating a ticket class.
// TotalQuantity unit rows are pre-allocated in AVAILABLE state.
type CreateTicketClassRequest struct {
	Name          string          `json:"name" binding:"required"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	TotalQuantity int             `json:"total_quantity" binding:"required,min=1"`
	MaxPerOrder   int             `json:"max_per_order"`
}

// CreateOrderRequest - request body for reserving tickets
type CreateOrderRequest struct {
	TicketClassID uuid.UUID       `json:"ticket_class_id" binding:"required"`
	Quantity      int             `json:"quantity" binding:"required"`
	PlatformFee   decimal.Decimal `json:"platform_fee"`
}

// CheckoutResponse - payment intent handle returned to the client
type CheckoutResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// PaymentNotificationPayload - webhook payload posted by the payment gateway
type PaymentNotificationPayload struct {
	PaymentID string          `json:"paymentId" binding:"required"`
	Status    string          `json:"status" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp string          `json:"timestamp"`
}

// ScanRequest - redemption token presented at the door
type ScanRequest struct {
	Token string `json:"token" binding:"required"`
}

// ScanResponse - classified scan outcome plus a human-readable message
type ScanResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	UnitID  *uuid.UUID `json:"unit_id,omitempty"`
}

// ClassAvailability - read-time aggregate of unit states for one class
type ClassAvailability struct {
	TicketClassID uuid.UUID `json:"ticket_class_id"`
	Name          string    `json:"name"`
	Total         int       `json:"total"`
	Available     int       `json:"available"`
	Reserved      int       `json:"reserved"`
	Sold          int       `json:"sold"`
}
