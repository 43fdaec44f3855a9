package repository

import (
	"context"
	"database/sql"
	"time"

	"tessera/internal/database"
	"tessera/internal/errors"
	"tessera/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// HoldDuration is how long a reservation keeps its units before the reaper
// may release them.
const HoldDuration = 15 * time.Minute

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Reserve claims quantity available units for a new order in one
// transaction. FOR UPDATE SKIP LOCKED makes concurrent claims pick disjoint
// rows instead of queueing on the same ones, so two buyers racing for the
// last seat resolve without either seeing a serialization failure: one gets
// the row, the other sees fewer rows than requested and the whole
// transaction rolls back.
func (r *OrderRepository) Reserve(ctx context.Context, class *models.TicketClass, buyerID int64, quantity int, totalAmount, platformFee decimal.Decimal) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	claimQuery := `
		SELECT id
		FROM ticket_units
		WHERE ticket_class_id = $1 AND status = 'AVAILABLE'
		LIMIT $2
		FOR UPDATE SKIP LOCKED`

	rows, err := tx.QueryContext(ctx, claimQuery, class.ID, quantity)
	if err != nil {
		return nil, err
	}

	var unitIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		unitIDs = append(unitIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(unitIDs) < quantity {
		return nil, errors.ErrInsufficientInventory
	}

	order := &models.Order{
		ID:            uuid.New(),
		TicketClassID: class.ID,
		BuyerID:       buyerID,
		Status:        models.OrderAwaitingPayment,
		TotalAmount:   totalAmount,
		PlatformFee:   platformFee,
		ExpiresAt:     time.Now().Add(HoldDuration),
	}

	orderQuery := `
		INSERT INTO orders (id, ticket_class_id, buyer_id, status, total_amount, platform_fee, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err = tx.QueryRowContext(ctx, orderQuery,
		order.ID,
		order.TicketClassID,
		order.BuyerID,
		order.Status,
		order.TotalAmount,
		order.PlatformFee,
		order.ExpiresAt,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	unitsQuery := `
		UPDATE ticket_units
		SET status = 'RESERVED', order_id = $1, updated_at = NOW()
		WHERE id = ANY($2::uuid[])`

	if _, err := tx.ExecContext(ctx, unitsQuery, order.ID, pq.Array(unitIDs)); err != nil {
		return nil, err
	}

	// Counter moves in the same transaction as the unit rows, so it can
	// never disagree with them.
	counterQuery := `
		UPDATE ticket_classes
		SET quantity_sold = quantity_sold + $1
		WHERE id = $2`

	if _, err := tx.ExecContext(ctx, counterQuery, quantity, class.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for _, id := range unitIDs {
		order.Units = append(order.Units, models.TicketUnit{
			ID:            id,
			TicketClassID: class.ID,
			OrderID:       &order.ID,
			Status:        models.UnitReserved,
		})
	}

	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, ticket_class_id, buyer_id, status, total_amount, platform_fee,
		       payment_intent_id, expires_at, created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.TicketClassID,
		&order.BuyerID,
		&order.Status,
		&order.TotalAmount,
		&order.PlatformFee,
		&order.PaymentIntentID,
		&order.ExpiresAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return order, err
}

func (r *OrderRepository) GetByBuyerID(ctx context.Context, buyerID int64) ([]models.Order, error) {
	var orders []models.Order
	query := `
		SELECT id, ticket_class_id, buyer_id, status, total_amount, platform_fee,
		       payment_intent_id, expires_at, created_at, updated_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.TicketClassID,
			&order.BuyerID,
			&order.Status,
			&order.TotalAmount,
			&order.PlatformFee,
			&order.PaymentIntentID,
			&order.ExpiresAt,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *OrderRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, ticket_class_id, buyer_id, status, total_amount, platform_fee,
		       payment_intent_id, expires_at, created_at, updated_at
		FROM orders
		WHERE payment_intent_id = $1`

	err := r.db.QueryRowContext(ctx, query, intentID).Scan(
		&order.ID,
		&order.TicketClassID,
		&order.BuyerID,
		&order.Status,
		&order.TotalAmount,
		&order.PlatformFee,
		&order.PaymentIntentID,
		&order.ExpiresAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return order, err
}

func (r *OrderRepository) SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error {
	query := `
		UPDATE orders
		SET payment_intent_id = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, intentID, orderID)
	return err
}

// Finalize settles a paid order: flips it to PAID, marks its units SOLD
// with their redemption tokens, and records the payment. The guarded
// UPDATE makes the whole thing idempotent: a replayed callback, or one
// arriving after the reaper already released the hold, matches zero rows
// and the method reports false without touching anything.
func (r *OrderRepository) Finalize(ctx context.Context, orderID uuid.UUID, payment *models.Payment, tokens []models.UnitToken) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	orderQuery := `
		UPDATE orders
		SET status = 'PAID', updated_at = NOW()
		WHERE id = $1 AND status = 'AWAITING_PAYMENT'`

	res, err := tx.ExecContext(ctx, orderQuery, orderID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	unitQuery := `
		UPDATE ticket_units
		SET status = 'SOLD', token = $1, token_expires_at = $2, updated_at = NOW()
		WHERE id = $3 AND order_id = $4 AND status = 'RESERVED'`

	for _, t := range tokens {
		if _, err := tx.ExecContext(ctx, unitQuery, t.Token, t.ExpiresAt, t.UnitID, orderID); err != nil {
			return false, err
		}
	}

	paymentQuery := `
		INSERT INTO payments (order_id, payment_intent_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, paymentQuery,
		payment.OrderID,
		payment.PaymentIntentID,
		payment.Amount,
		payment.Currency,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

// Release cancels a hold: flips the order to the given terminal status and
// returns its units to the pool. Guarded the same way Finalize is, so the
// reaper and a payment-failed callback racing over the same order release
// it exactly once.
func (r *OrderRepository) Release(ctx context.Context, orderID uuid.UUID, status string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	orderQuery := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'AWAITING_PAYMENT'`

	res, err := tx.ExecContext(ctx, orderQuery, status, orderID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	unitQuery := `
		UPDATE ticket_units
		SET status = 'AVAILABLE', order_id = NULL, token = NULL, token_expires_at = NULL, updated_at = NOW()
		WHERE order_id = $1 AND status = 'RESERVED'`

	unitRes, err := tx.ExecContext(ctx, unitQuery, orderID)
	if err != nil {
		return false, err
	}
	released, err := unitRes.RowsAffected()
	if err != nil {
		return false, err
	}

	counterQuery := `
		UPDATE ticket_classes
		SET quantity_sold = quantity_sold - $1
		WHERE id = (SELECT ticket_class_id FROM orders WHERE id = $2)`

	if _, err := tx.ExecContext(ctx, counterQuery, released, orderID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

// ListExpired returns orders whose hold has lapsed, for the reaper to
// release one by one.
func (r *OrderRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := `
		SELECT id, ticket_class_id, buyer_id, status, total_amount, platform_fee,
		       payment_intent_id, expires_at, created_at, updated_at
		FROM orders
		WHERE status = 'AWAITING_PAYMENT' AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.TicketClassID,
			&order.BuyerID,
			&order.Status,
			&order.TotalAmount,
			&order.PlatformFee,
			&order.PaymentIntentID,
			&order.ExpiresAt,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}
