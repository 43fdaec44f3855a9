package repository

import (
	"context"
	"database/sql"

	"tessera/internal/database"
	"tessera/internal/models"

	"github.com/google/uuid"
)

type TicketClassRepository struct {
	db *database.DB
}

func NewTicketClassRepository(db *database.DB) *TicketClassRepository {
	return &TicketClassRepository{db: db}
}

// CreateWithUnits inserts the class and pre-allocates one unit row per
// sellable seat in the same transaction. Capacity is fixed from this point
// on; reservation claims individual unit rows instead of decrementing a
// counter.
func (r *TicketClassRepository) CreateWithUnits(ctx context.Context, class *models.TicketClass) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ticket_classes (event_id, name, price, total_quantity, max_per_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, quantity_sold, created_at`

	err = tx.QueryRowContext(ctx, query,
		class.EventID,
		class.Name,
		class.Price,
		class.TotalQuantity,
		class.MaxPerOrder,
	).Scan(&class.ID, &class.QuantitySold, &class.CreatedAt)
	if err != nil {
		return err
	}

	unitsQuery := `
		INSERT INTO ticket_units (ticket_class_id, status)
		SELECT $1, 'AVAILABLE' FROM generate_series(1, $2)`

	if _, err := tx.ExecContext(ctx, unitsQuery, class.ID, class.TotalQuantity); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *TicketClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TicketClass, error) {
	class := &models.TicketClass{Event: &models.Event{}}
	query := `
		SELECT tc.id, tc.event_id, tc.name, tc.price, tc.total_quantity, tc.quantity_sold,
		       tc.max_per_order, tc.created_at,
		       e.id, e.name, e.description, e.starts_at, e.ends_at, e.sale_starts_at,
		       e.published, e.created_at
		FROM ticket_classes tc
		JOIN events e ON e.id = tc.event_id
		WHERE tc.id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&class.ID,
		&class.EventID,
		&class.Name,
		&class.Price,
		&class.TotalQuantity,
		&class.QuantitySold,
		&class.MaxPerOrder,
		&class.CreatedAt,
		&class.Event.ID,
		&class.Event.Name,
		&class.Event.Description,
		&class.Event.StartsAt,
		&class.Event.EndsAt,
		&class.Event.SaleStartsAt,
		&class.Event.Published,
		&class.Event.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return class, err
}

func (r *TicketClassRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]models.TicketClass, error) {
	var classes []models.TicketClass
	query := `
		SELECT id, event_id, name, price, total_quantity, quantity_sold, max_per_order, created_at
		FROM ticket_classes
		WHERE event_id = $1
		ORDER BY price ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var class models.TicketClass
		err := rows.Scan(
			&class.ID,
			&class.EventID,
			&class.Name,
			&class.Price,
			&class.TotalQuantity,
			&class.QuantitySold,
			&class.MaxPerOrder,
			&class.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}

	return classes, rows.Err()
}

// Availability aggregates unit states at read time. Counting rows instead
// of trusting quantity_sold means the answer reflects exactly the rows
// reservation has claimed, including holds the reaper has not swept yet.
func (r *TicketClassRepository) Availability(ctx context.Context, eventID uuid.UUID) ([]models.ClassAvailability, error) {
	var result []models.ClassAvailability
	query := `
		SELECT tc.id, tc.name, tc.total_quantity,
		       COUNT(tu.id) FILTER (WHERE tu.status = 'AVAILABLE') AS available,
		       COUNT(tu.id) FILTER (WHERE tu.status = 'RESERVED') AS reserved,
		       COUNT(tu.id) FILTER (WHERE tu.status IN ('SOLD', 'CHECKED_IN')) AS sold
		FROM ticket_classes tc
		LEFT JOIN ticket_units tu ON tu.ticket_class_id = tc.id
		WHERE tc.event_id = $1
		GROUP BY tc.id, tc.name, tc.total_quantity
		ORDER BY tc.name`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a models.ClassAvailability
		err := rows.Scan(
			&a.TicketClassID,
			&a.Name,
			&a.Total,
			&a.Available,
			&a.Reserved,
			&a.Sold,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}

	return result, rows.Err()
}
