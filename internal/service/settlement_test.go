package service

import (
	"context"
	"testing"
	"time"

	"tessera/internal/errors"
	"tessera/internal/external"
	"tessera/internal/models"
	"tessera/internal/token"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlementFixture struct {
	db          *fakeDB
	reservation *ReservationService
	settlement  *SettlementService
	tokens      *token.Service
	pub         *fakePublisher
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	db := newFakeDB()
	pub := &fakePublisher{}
	tokens := token.NewService("test-secret")

	return &settlementFixture{
		db:          db,
		reservation: NewReservationService(&fakeClasses{db}, &fakeOrders{db}, pub),
		settlement:  NewSettlementService(&fakeOrders{db}, &fakeClasses{db}, &fakeUnits{db}, tokens, &external.MockProvider{}, pub),
		tokens:      tokens,
		pub:         pub,
	}
}

// reserveAndCheckout walks an order to the point where the gateway holds a
// payment intent for it.
func (f *settlementFixture) reserveAndCheckout(t *testing.T, class *models.TicketClass, quantity int) (*models.Order, string) {
	t.Helper()

	order, err := f.reservation.Reserve(context.Background(), 1, &models.CreateOrderRequest{
		TicketClassID: class.ID,
		Quantity:      quantity,
		PlatformFee:   decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	resp, err := f.settlement.Checkout(context.Background(), 1, order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, resp.PaymentIntentID)

	return order, resp.PaymentIntentID
}

func TestCheckoutWrongBuyer(t *testing.T) {
	f := newSettlementFixture(t)
	class := f.db.seedClass("10.00", 5, 4)

	order, err := f.reservation.Reserve(context.Background(), 1, &models.CreateOrderRequest{
		TicketClassID: class.ID,
		Quantity:      1,
	})
	require.NoError(t, err)

	_, err = f.settlement.Checkout(context.Background(), 2, order.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCheckoutExpiredHold(t *testing.T) {
	f := newSettlementFixture(t)
	class := f.db.seedClass("10.00", 5, 4)

	order, err := f.reservation.Reserve(context.Background(), 1, &models.CreateOrderRequest{
		TicketClassID: class.ID,
		Quantity:      1,
	})
	require.NoError(t, err)

	f.db.orders[order.ID].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = f.settlement.Checkout(context.Background(), 1, order.ID)
	assert.ErrorIs(t, err, errors.ErrOrderExpired)
}

func TestFinalizeSettlesOrder(t *testing.T) {
	f := newSettlementFixture(t)
	class := f.db.seedClass("25.00", 5, 4)
	order, intentID := f.reserveAndCheckout(t, class, 2)

	err := f.settlement.HandlePaymentNotification(context.Background(), &models.PaymentNotificationPayload{
		PaymentID: intentID,
		Status:    "succeeded",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPaid, f.db.orders[order.ID].Status)
	require.Len(t, f.db.payments[order.ID], 1)
	assert.True(t, f.db.payments[order.ID][0].Amount.Equal(decimal.RequireFromString("55.00")))

	for _, unit := range order.Units {
		stored := f.db.units[unit.ID]
		assert.Equal(t, models.UnitSold, stored.Status)
		require.NotNil(t, stored.Token)

		ok, unitID := f.tokens.Validate(*stored.Token)
		assert.True(t, ok)
		assert.Equal(t, unit.ID, unitID)

		// Tokens stay valid until one hour past the event end
		expected := f.db.events[class.EventID].EndsAt.Add(time.Hour)
		assert.WithinDuration(t, expected, *stored.TokenExpiresAt, time.Second)
	}

	assert.Equal(t, 1, f.pub.count(models.EventOrderPaid))
}

func TestFinalizeIdempotent(t *testing.T) {
	f := newSettlementFixture(t)
	class := f.db.seedClass("25.00", 5, 4)
	order, intentID := f.reserveAndCheckout(t, class, 2)

	for i := 0; i < 3; i++ {
		err := f.settlement.HandlePaymentNotification(context.Background(), &models.PaymentNotificationPayload{
			PaymentID: intentID,
			Status:    "succeeded",
		})
		require.NoError(t, err)
	}

	assert.Len(t, f.db.payments[order.ID], 1, "replayed callbacks must not record extra payments")
	assert.Equal(t, 1, f.pub.count(models.EventOrderPaid))
}

func TestFinalizeUnknownIntent(t *testing.T) {
	f := newSettlementFixture(t)

	err := f.settlement.HandlePaymentNotification(context.Background(), &models.PaymentNotificationPayload{
		PaymentID: "pi_never_seen",
		Status:    "succeeded",
	})
	assert.NoError(t, err)
}

func TestReleaseReturnsUnits(t *testing.T) {
	f := newSettlementFixture(t)
	class := f.db.seedClass("25.00", 5, 4)
	order, intentID := f.reserveAndCheckout(t, class, 2)

	err := f.settlement.HandlePaymentNotification(context.Background(), &models.PaymentNotificationPayload{
		PaymentID: intentID,
		Status:    "failed",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderCancelled, f.db.orders[order.ID].Status)
	assert.Equal(t, 0, f.db.classes[class.ID].QuantitySold)
	for _, unit := range order.Units {
		assert.Equal(t, models.UnitAvailable, f.db.units[unit.ID].Status)
	}
	assert.Equal(t, 1, f.pub.count(models.EventOrderReleased))
}

func TestFinalizeAfterReleaseDoesNotResurrect(t *testing.T) {
	f := newSettlementFixture(t)
	class := f.db.seedClass("25.00", 5, 4)
	order, intentID := f.reserveAndCheckout(t, class, 1)

	// Reaper sweeps the lapsed hold first
	orders := &fakeOrders{f.db}
	released, err := orders.Release(context.Background(), order.ID, models.OrderCancelled)
	require.NoError(t, err)
	require.True(t, released)

	// Late success callback must not bring the order back
	err = f.settlement.HandlePaymentNotification(context.Background(), &models.PaymentNotificationPayload{
		PaymentID: intentID,
		Status:    "succeeded",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderCancelled, f.db.orders[order.ID].Status)
	assert.Empty(t, f.db.payments[order.ID])
	for _, unit := range order.Units {
		assert.Equal(t, models.UnitAvailable, f.db.units[unit.ID].Status)
	}
}
