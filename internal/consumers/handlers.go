package consumers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tessera/internal/cache"
	"tessera/internal/models"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"
)

type Handlers struct {
	valkey *cache.ValkeyClient
}

func NewHandlers(valkey *cache.ValkeyClient) *Handlers {
	return &Handlers{valkey: valkey}
}

func asMsgHandler(handle func([]byte)) stan.MsgHandler {
	return func(msg *stan.Msg) {
		handle(msg.Data)
	}
}

func (h *Handlers) HandleOrderReserved(data []byte) {
	var event models.OrderReservedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal order reserved event", "error", err)
		return
	}

	slog.Info("Order reserved",
		"order_id", event.OrderID,
		"ticket_class_id", event.TicketClassID,
		"buyer_id", event.BuyerID,
		"quantity", event.Quantity)

	h.invalidateAvailability(event.EventID)
}

func (h *Handlers) HandleOrderPaid(data []byte) {
	var event models.OrderPaidEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal order paid event", "error", err)
		return
	}

	slog.Info("Order paid",
		"order_id", event.OrderID,
		"payment_intent_id", event.PaymentIntentID)

	h.invalidateAvailability(event.EventID)
}

func (h *Handlers) HandleOrderReleased(data []byte) {
	var event models.OrderReleasedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal order released event", "error", err)
		return
	}

	slog.Info("Order released",
		"order_id", event.OrderID,
		"payment_intent_id", event.PaymentIntentID)

	h.invalidateAvailability(event.EventID)
}

func (h *Handlers) HandleOrderExpired(data []byte) {
	var event models.OrderExpiredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal order expired event", "error", err)
		return
	}

	slog.Info("Order expired",
		"order_id", event.OrderID,
		"ticket_class_id", event.TicketClassID,
		"reason", event.Reason)
}

func (h *Handlers) HandleCheckinRecorded(data []byte) {
	var event models.CheckinRecordedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal check-in event", "error", err)
		return
	}

	slog.Info("Check-in recorded",
		"ticket_unit_id", event.TicketUnitID,
		"scanned_by", event.ScannedBy)
}

func (h *Handlers) invalidateAvailability(eventID uuid.UUID) {
	if h.valkey == nil || eventID == uuid.Nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.valkey.InvalidateAvailability(ctx, eventID); err != nil {
		slog.Warn("Failed to invalidate availability cache", "event_id", eventID, "error", err)
	}
}
