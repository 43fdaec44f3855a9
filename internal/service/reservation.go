package service

import (
	"context"
	"log/slog"
	"time"

	"tessera/internal/errors"
	"tessera/internal/metrics"
	"tessera/internal/models"

	"github.com/shopspring/decimal"
)

var (
	feeFloor   = decimal.Zero
	feeCeiling = decimal.NewFromInt(20)
)

// ReservationService turns a buyer's quantity request into an order with a
// time-boxed hold on concrete units.
type ReservationService struct {
	classes classGetter
	orders  orderReserver
	nats    Publisher
}

func NewReservationService(classes classGetter, orders orderReserver, nats Publisher) *ReservationService {
	return &ReservationService{classes: classes, orders: orders, nats: nats}
}

// Reserve validates the request against the class and its sale window,
// then delegates the atomic claim to the order store. The requested fee
// percentage is clamped to [0, 20] rather than rejected; callers sending
// garbage get the nearest sane value.
func (s *ReservationService) Reserve(ctx context.Context, buyerID int64, req *models.CreateOrderRequest) (*models.Order, error) {
	start := time.Now()

	class, err := s.classes.GetByID(ctx, req.TicketClassID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		metrics.ReservationsTotal.WithLabelValues("rejected").Inc()
		return nil, errors.ErrNotFound
	}

	if req.Quantity <= 0 || (class.MaxPerOrder > 0 && req.Quantity > class.MaxPerOrder) {
		metrics.ReservationsTotal.WithLabelValues("rejected").Inc()
		return nil, errors.ErrInvalidQuantity
	}

	if class.Event != nil && time.Now().Before(class.Event.SaleStartsAt) {
		metrics.ReservationsTotal.WithLabelValues("rejected").Inc()
		return nil, errors.ErrNotOnSaleYet
	}

	totalAmount := class.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))

	// The fee is stored as the clamped percentage and applied at charge
	// time, so an order's total_amount is always price x quantity.
	platformFee := clampFee(req.PlatformFee)

	order, err := s.orders.Reserve(ctx, class, buyerID, req.Quantity, totalAmount, platformFee)
	if err != nil {
		if err == errors.ErrInsufficientInventory {
			metrics.ReservationsTotal.WithLabelValues("sold_out").Inc()
		}
		return nil, err
	}

	metrics.ReservationsTotal.WithLabelValues("reserved").Inc()
	metrics.ReserveDuration.Observe(time.Since(start).Seconds())

	event := models.OrderReservedEvent{
		OrderID:       order.ID,
		TicketClassID: class.ID,
		EventID:       class.EventID,
		BuyerID:       buyerID,
		Quantity:      req.Quantity,
		Timestamp:     time.Now(),
	}
	if err := s.nats.Publish(models.EventOrderReserved, event); err != nil {
		slog.Warn("Failed to publish order reserved event", "order_id", order.ID, "error", err)
	}

	return order, nil
}

func clampFee(pct decimal.Decimal) decimal.Decimal {
	if pct.LessThan(feeFloor) {
		return feeFloor
	}
	if pct.GreaterThan(feeCeiling) {
		return feeCeiling
	}
	return pct
}
