package service

import (
	"context"
	"sync"
	"time"

	"tessera/internal/errors"
	"tessera/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeDB is an in-memory stand-in for the Postgres repositories. Its
// methods take the same lock, so the guarded status transitions behave
// like the real guarded UPDATEs under concurrent callers.
type fakeDB struct {
	mu       sync.Mutex
	events   map[uuid.UUID]*models.Event
	classes  map[uuid.UUID]*models.TicketClass
	orders   map[uuid.UUID]*models.Order
	units    map[uuid.UUID]*models.TicketUnit
	payments map[uuid.UUID][]models.Payment
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		events:   make(map[uuid.UUID]*models.Event),
		classes:  make(map[uuid.UUID]*models.TicketClass),
		orders:   make(map[uuid.UUID]*models.Order),
		units:    make(map[uuid.UUID]*models.TicketUnit),
		payments: make(map[uuid.UUID][]models.Payment),
	}
}

// seedClass creates a class with pre-allocated available units, on sale
// since an hour ago for an event ending in 24 hours.
func (db *fakeDB) seedClass(price string, quantity, maxPerOrder int) *models.TicketClass {
	event := &models.Event{
		ID:           uuid.New(),
		Name:         "Test Event",
		StartsAt:     time.Now().Add(20 * time.Hour),
		EndsAt:       time.Now().Add(24 * time.Hour),
		SaleStartsAt: time.Now().Add(-time.Hour),
		Published:    true,
	}
	db.events[event.ID] = event

	class := &models.TicketClass{
		ID:            uuid.New(),
		EventID:       event.ID,
		Name:          "General",
		Price:         decimal.RequireFromString(price),
		TotalQuantity: quantity,
		MaxPerOrder:   maxPerOrder,
		Event:         event,
	}
	db.classes[class.ID] = class

	for i := 0; i < quantity; i++ {
		unit := &models.TicketUnit{
			ID:            uuid.New(),
			TicketClassID: class.ID,
			Status:        models.UnitAvailable,
		}
		db.units[unit.ID] = unit
	}

	return class
}

type fakeClasses struct{ db *fakeDB }

func (f *fakeClasses) GetByID(_ context.Context, id uuid.UUID) (*models.TicketClass, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	class, ok := f.db.classes[id]
	if !ok {
		return nil, nil
	}
	copied := *class
	return &copied, nil
}

type fakeOrders struct{ db *fakeDB }

func (f *fakeOrders) Reserve(_ context.Context, class *models.TicketClass, buyerID int64, quantity int, totalAmount, platformFee decimal.Decimal) (*models.Order, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	var claimed []*models.TicketUnit
	for _, unit := range f.db.units {
		if unit.TicketClassID == class.ID && unit.Status == models.UnitAvailable {
			claimed = append(claimed, unit)
			if len(claimed) == quantity {
				break
			}
		}
	}
	if len(claimed) < quantity {
		return nil, errors.ErrInsufficientInventory
	}

	order := &models.Order{
		ID:            uuid.New(),
		TicketClassID: class.ID,
		BuyerID:       buyerID,
		Status:        models.OrderAwaitingPayment,
		TotalAmount:   totalAmount,
		PlatformFee:   platformFee,
		ExpiresAt:     time.Now().Add(15 * time.Minute),
	}
	f.db.orders[order.ID] = order

	for _, unit := range claimed {
		unit.Status = models.UnitReserved
		unit.OrderID = &order.ID
		order.Units = append(order.Units, *unit)
	}
	f.db.classes[class.ID].QuantitySold += quantity

	copied := *order
	return &copied, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	order, ok := f.db.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrders) GetByBuyerID(_ context.Context, buyerID int64) ([]models.Order, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var orders []models.Order
	for _, order := range f.db.orders {
		if order.BuyerID == buyerID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (f *fakeOrders) GetByPaymentIntentID(_ context.Context, intentID string) (*models.Order, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, order := range f.db.orders {
		if order.PaymentIntentID != nil && *order.PaymentIntentID == intentID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrders) SetPaymentIntent(_ context.Context, orderID uuid.UUID, intentID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.orders[orderID].PaymentIntentID = &intentID
	return nil
}

func (f *fakeOrders) Finalize(_ context.Context, orderID uuid.UUID, payment *models.Payment, tokens []models.UnitToken) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	order := f.db.orders[orderID]
	if order.Status != models.OrderAwaitingPayment {
		return false, nil
	}
	order.Status = models.OrderPaid

	for _, t := range tokens {
		unit := f.db.units[t.UnitID]
		if unit.Status == models.UnitReserved {
			unit.Status = models.UnitSold
			tok := t.Token
			exp := t.ExpiresAt
			unit.Token = &tok
			unit.TokenExpiresAt = &exp
		}
	}

	f.db.payments[orderID] = append(f.db.payments[orderID], *payment)
	return true, nil
}

func (f *fakeOrders) Release(_ context.Context, orderID uuid.UUID, status string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	order := f.db.orders[orderID]
	if order.Status != models.OrderAwaitingPayment {
		return false, nil
	}
	order.Status = status

	released := 0
	for _, unit := range f.db.units {
		if unit.OrderID != nil && *unit.OrderID == orderID && unit.Status == models.UnitReserved {
			unit.Status = models.UnitAvailable
			unit.OrderID = nil
			released++
		}
	}
	f.db.classes[order.TicketClassID].QuantitySold -= released
	return true, nil
}

type fakeUnits struct{ db *fakeDB }

func (f *fakeUnits) GetByID(_ context.Context, id uuid.UUID) (*models.TicketUnit, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	unit, ok := f.db.units[id]
	if !ok {
		return nil, nil
	}
	copied := *unit
	return &copied, nil
}

func (f *fakeUnits) GetByOrderID(_ context.Context, orderID uuid.UUID) ([]models.TicketUnit, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var units []models.TicketUnit
	for _, unit := range f.db.units {
		if unit.OrderID != nil && *unit.OrderID == orderID {
			units = append(units, *unit)
		}
	}
	return units, nil
}

type fakeCheckIns struct{ db *fakeDB }

func (f *fakeCheckIns) Record(_ context.Context, unitID uuid.UUID, _ int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	unit := f.db.units[unitID]
	if unit.Status != models.UnitSold {
		return false, nil
	}
	unit.Status = models.UnitCheckedIn
	return true, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakePublisher) Publish(subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *fakePublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}
