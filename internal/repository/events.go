package repository

import (
	"context"
	"database/sql"

	"tessera/internal/database"
	"tessera/internal/models"

	"github.com/google/uuid"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (name, description, starts_at, ends_at, sale_starts_at, published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.StartsAt,
		event.EndsAt,
		event.SaleStartsAt,
		event.Published,
	).Scan(&event.ID, &event.CreatedAt)

	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, name, description, starts_at, ends_at, sale_starts_at, published, created_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.StartsAt,
		&event.EndsAt,
		&event.SaleStartsAt,
		&event.Published,
		&event.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *EventRepository) List(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	var events []models.Event
	query := `
		SELECT id, name, description, starts_at, ends_at, sale_starts_at, published, created_at
		FROM events
		WHERE published = TRUE
		ORDER BY starts_at ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.Description,
			&event.StartsAt,
			&event.EndsAt,
			&event.SaleStartsAt,
			&event.Published,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
