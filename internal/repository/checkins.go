package repository

import (
	"context"

	"tessera/internal/database"

	"github.com/google/uuid"
)

type CheckInRepository struct {
	db *database.DB
}

func NewCheckInRepository(db *database.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// Record marks one unit as redeemed. The guarded UPDATE only matches a
// SOLD unit, and the UNIQUE constraint on check_ins.ticket_unit_id backs
// it up, so two scanners hitting the same token concurrently get exactly
// one true result between them.
func (r *CheckInRepository) Record(ctx context.Context, unitID uuid.UUID, scannedBy int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	unitQuery := `
		UPDATE ticket_units
		SET status = 'CHECKED_IN', updated_at = NOW()
		WHERE id = $1 AND status = 'SOLD'`

	res, err := tx.ExecContext(ctx, unitQuery, unitID)
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

	insertQuery := `
		INSERT INTO check_ins (ticket_unit_id, scanned_by)
		VALUES ($1, $2)`

	if _, err := tx.ExecContext(ctx, insertQuery, unitID, scannedBy); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}
