package repository

import (
	"context"
	"database/sql"

	"tessera/internal/database"
	"tessera/internal/models"

	"github.com/google/uuid"
)

type TicketUnitRepository struct {
	db *database.DB
}

func NewTicketUnitRepository(db *database.DB) *TicketUnitRepository {
	return &TicketUnitRepository{db: db}
}

func (r *TicketUnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TicketUnit, error) {
	unit := &models.TicketUnit{}
	query := `
		SELECT id, ticket_class_id, order_id, status, token, token_expires_at, created_at, updated_at
		FROM ticket_units
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&unit.ID,
		&unit.TicketClassID,
		&unit.OrderID,
		&unit.Status,
		&unit.Token,
		&unit.TokenExpiresAt,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return unit, err
}

func (r *TicketUnitRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.TicketUnit, error) {
	var units []models.TicketUnit
	query := `
		SELECT id, ticket_class_id, order_id, status, token, token_expires_at, created_at, updated_at
		FROM ticket_units
		WHERE order_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var unit models.TicketUnit
		err := rows.Scan(
			&unit.ID,
			&unit.TicketClassID,
			&unit.OrderID,
			&unit.Status,
			&unit.Token,
			&unit.TokenExpiresAt,
			&unit.CreatedAt,
			&unit.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}

	return units, rows.Err()
}
