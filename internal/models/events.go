package models

import (
	"time"

	"github.com/google/uuid"
)

// NATS subjects
const (
	EventOrderReserved   = "order.reserved"
	EventOrderPaid       = "order.paid"
	EventOrderReleased   = "order.released"
	EventOrderExpired    = "order.expired"
	EventCheckinRecorded = "checkin.recorded"
)

// OrderReservedEvent is published after a reservation commits
type OrderReservedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	TicketClassID uuid.UUID `json:"ticket_class_id"`
	EventID       uuid.UUID `json:"event_id"`
	BuyerID       int64     `json:"buyer_id"`
	Quantity      int       `json:"quantity"`
	Timestamp     time.Time `json:"timestamp"`
}

// OrderPaidEvent is published after a successful finalization
type OrderPaidEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	TicketClassID   uuid.UUID `json:"ticket_class_id"`
	EventID         uuid.UUID `json:"event_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// OrderReleasedEvent is published when a hold is released after a failed
// or cancelled payment
type OrderReleasedEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	TicketClassID   uuid.UUID `json:"ticket_class_id"`
	EventID         uuid.UUID `json:"event_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// OrderExpiredEvent is published by the reaper when an unpaid hold is swept
type OrderExpiredEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	TicketClassID uuid.UUID `json:"ticket_class_id"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// CheckinRecordedEvent is published after a unit is checked in at the door
type CheckinRecordedEvent struct {
	TicketUnitID uuid.UUID `json:"ticket_unit_id"`
	ScannedBy    int64     `json:"scanned_by"`
	Timestamp    time.Time `json:"timestamp"`
}
