package service

import (
	"context"
	"log/slog"
	"time"

	"tessera/internal/errors"
	"tessera/internal/external"
	"tessera/internal/metrics"
	"tessera/internal/models"
	"tessera/internal/token"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// tokenValidityAfterEvent pads the redemption token expiry past the event
// end so late scans at the door still verify.
const tokenValidityAfterEvent = time.Hour

var hundred = decimal.NewFromInt(100)

// chargeAmount applies the order's stored fee percentage on top of the
// ticket total.
func chargeAmount(order *models.Order) decimal.Decimal {
	fee := order.TotalAmount.Mul(order.PlatformFee).Div(hundred).Round(2)
	return order.TotalAmount.Add(fee)
}

type orderSettler interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByBuyerID(ctx context.Context, buyerID int64) ([]models.Order, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error
	Finalize(ctx context.Context, orderID uuid.UUID, payment *models.Payment, tokens []models.UnitToken) (bool, error)
	Release(ctx context.Context, orderID uuid.UUID, status string) (bool, error)
}

type unitLister interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.TicketUnit, error)
}

// SettlementService owns the payment leg of an order: creating the intent
// at checkout and reacting to the gateway's asynchronous callbacks.
type SettlementService struct {
	orders   orderSettler
	classes  classGetter
	units    unitLister
	tokens   *token.Service
	provider external.PaymentProvider
	nats     Publisher
}

func NewSettlementService(orders orderSettler, classes classGetter, units unitLister, tokens *token.Service, provider external.PaymentProvider, nats Publisher) *SettlementService {
	return &SettlementService{
		orders:   orders,
		classes:  classes,
		units:    units,
		tokens:   tokens,
		provider: provider,
		nats:     nats,
	}
}

// GetOrder returns the buyer's order with its units. Other buyers' orders
// are indistinguishable from missing ones.
func (s *SettlementService) GetOrder(ctx context.Context, buyerID int64, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.BuyerID != buyerID {
		return nil, errors.ErrNotFound
	}

	units, err := s.units.GetByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Units = units

	return order, nil
}

func (s *SettlementService) ListOrders(ctx context.Context, buyerID int64) ([]models.Order, error) {
	return s.orders.GetByBuyerID(ctx, buyerID)
}

// Checkout creates a payment intent for the buyer's order. Only the owner
// of a live AWAITING_PAYMENT hold can check out; an expired hold is
// rejected here even if the reaper has not swept it yet.
func (s *SettlementService) Checkout(ctx context.Context, buyerID int64, orderID uuid.UUID) (*models.CheckoutResponse, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.BuyerID != buyerID {
		return nil, errors.ErrNotFound
	}
	if order.Status != models.OrderAwaitingPayment {
		return nil, errors.ErrOrderNotPayable
	}
	if time.Now().After(order.ExpiresAt) {
		return nil, errors.ErrOrderExpired
	}

	intent, err := s.provider.CreateIntent(ctx, order.ID, chargeAmount(order))
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetPaymentIntent(ctx, order.ID, intent.PaymentIntentID); err != nil {
		return nil, err
	}

	return &models.CheckoutResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.PaymentIntentID,
	}, nil
}

// HandlePaymentNotification routes a gateway callback by its status.
// Unknown statuses are logged and acknowledged so the gateway does not
// retry them forever.
func (s *SettlementService) HandlePaymentNotification(ctx context.Context, payload *models.PaymentNotificationPayload) error {
	switch payload.Status {
	case "succeeded":
		_, err := s.Finalize(ctx, payload.PaymentID)
		return err
	case "failed", "canceled":
		return s.Release(ctx, payload.PaymentID)
	default:
		slog.Warn("Ignoring payment notification with unknown status",
			"payment_id", payload.PaymentID, "status", payload.Status)
		return nil
	}
}

// Finalize settles the order behind a successful payment intent. It only
// acts on an order still awaiting payment, which makes callbacks
// idempotent and keeps an order the reaper already released from
// resurrecting: the guarded store update matches nothing and the callback
// becomes a no-op. Returns the order when this call did the settlement,
// nil otherwise.
func (s *SettlementService) Finalize(ctx context.Context, intentID string) (*models.Order, error) {
	order, err := s.orders.GetByPaymentIntentID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		slog.Warn("Payment notification for unknown intent", "payment_intent_id", intentID)
		metrics.SettlementsTotal.WithLabelValues("unknown_intent").Inc()
		return nil, nil
	}
	if order.Status != models.OrderAwaitingPayment {
		metrics.SettlementsTotal.WithLabelValues("duplicate").Inc()
		return nil, nil
	}

	class, err := s.classes.GetByID(ctx, order.TicketClassID)
	if err != nil {
		return nil, err
	}

	units, err := s.units.GetByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	tokenExpiry := time.Now().Add(tokenValidityAfterEvent)
	if class != nil && class.Event != nil {
		tokenExpiry = class.Event.EndsAt.Add(tokenValidityAfterEvent)
	}

	unitTokens := make([]models.UnitToken, 0, len(units))
	for _, unit := range units {
		unitTokens = append(unitTokens, models.UnitToken{
			UnitID:    unit.ID,
			Token:     s.tokens.Generate(unit.ID, tokenExpiry),
			ExpiresAt: tokenExpiry,
		})
	}

	payment := &models.Payment{
		OrderID:         order.ID,
		PaymentIntentID: intentID,
		Amount:          chargeAmount(order),
		Currency:        "usd",
		Status:          "succeeded",
	}

	ok, err := s.orders.Finalize(ctx, order.ID, payment, unitTokens)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent callback or the reaper
		metrics.SettlementsTotal.WithLabelValues("duplicate").Inc()
		return nil, nil
	}

	metrics.SettlementsTotal.WithLabelValues("finalized").Inc()

	event := models.OrderPaidEvent{
		OrderID:         order.ID,
		TicketClassID:   order.TicketClassID,
		PaymentIntentID: intentID,
		Timestamp:       time.Now(),
	}
	if class != nil {
		event.EventID = class.EventID
	}
	if err := s.nats.Publish(models.EventOrderPaid, event); err != nil {
		slog.Warn("Failed to publish order paid event", "order_id", order.ID, "error", err)
	}

	slog.Info("Order finalized", "order_id", order.ID, "payment_intent_id", intentID)
	return order, nil
}

// Release cancels the hold behind a failed or canceled payment intent and
// returns its units to the pool.
func (s *SettlementService) Release(ctx context.Context, intentID string) error {
	order, err := s.orders.GetByPaymentIntentID(ctx, intentID)
	if err != nil {
		return err
	}
	if order == nil {
		slog.Warn("Payment notification for unknown intent", "payment_intent_id", intentID)
		metrics.SettlementsTotal.WithLabelValues("unknown_intent").Inc()
		return nil
	}

	ok, err := s.orders.Release(ctx, order.ID, models.OrderCancelled)
	if err != nil {
		return err
	}
	if !ok {
		metrics.SettlementsTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	metrics.SettlementsTotal.WithLabelValues("released").Inc()

	event := models.OrderReleasedEvent{
		OrderID:         order.ID,
		TicketClassID:   order.TicketClassID,
		PaymentIntentID: intentID,
		Timestamp:       time.Now(),
	}
	if class, err := s.classes.GetByID(ctx, order.TicketClassID); err == nil && class != nil {
		event.EventID = class.EventID
	}
	if err := s.nats.Publish(models.EventOrderReleased, event); err != nil {
		slog.Warn("Failed to publish order released event", "order_id", order.ID, "error", err)
	}

	slog.Info("Order released", "order_id", order.ID, "payment_intent_id", intentID)
	return nil
}
