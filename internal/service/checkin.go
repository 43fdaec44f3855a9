package service

import (
	"context"
	"log/slog"
	"time"

	"tessera/internal/metrics"
	"tessera/internal/models"
	"tessera/internal/token"

	"github.com/google/uuid"
)

type unitGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TicketUnit, error)
}

type checkInRecorder interface {
	Record(ctx context.Context, unitID uuid.UUID, scannedBy int64) (bool, error)
}

// CheckInService classifies door scans. Every outcome except a storage
// failure is a normal answer for the gate, not an error: the scanner UI
// shows Valid, Duplicate, Refunded or Invalid and moves on.
type CheckInService struct {
	units    unitGetter
	checkIns checkInRecorder
	tokens   *token.Service
	nats     Publisher
}

func NewCheckInService(units unitGetter, checkIns checkInRecorder, tokens *token.Service, nats Publisher) *CheckInService {
	return &CheckInService{units: units, checkIns: checkIns, tokens: tokens, nats: nats}
}

func (s *CheckInService) Validate(ctx context.Context, scannedBy int64, tok string) (*models.ScanResponse, error) {
	ok, unitID := s.tokens.Validate(tok)
	if !ok {
		metrics.CheckinsTotal.WithLabelValues("invalid").Inc()
		return &models.ScanResponse{Status: models.ScanInvalid, Message: "token is malformed, forged or expired"}, nil
	}

	unit, err := s.units.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		metrics.CheckinsTotal.WithLabelValues("invalid").Inc()
		return &models.ScanResponse{Status: models.ScanInvalid, Message: "unknown ticket"}, nil
	}

	// A verified signature is not enough: the token must also be the one
	// currently bound to the unit, or a stale token from a released order
	// could redeem a reissued seat.
	if unit.Token == nil || *unit.Token != tok {
		metrics.CheckinsTotal.WithLabelValues("invalid").Inc()
		return &models.ScanResponse{Status: models.ScanInvalid, Message: "token does not match ticket"}, nil
	}

	switch unit.Status {
	case models.UnitSold:
		recorded, err := s.checkIns.Record(ctx, unit.ID, scannedBy)
		if err != nil {
			return nil, err
		}
		if !recorded {
			// Another scanner got there first
			metrics.CheckinsTotal.WithLabelValues("duplicate").Inc()
			return &models.ScanResponse{Status: models.ScanDuplicate, Message: "ticket already checked in", UnitID: &unit.ID}, nil
		}

		metrics.CheckinsTotal.WithLabelValues("valid").Inc()

		event := models.CheckinRecordedEvent{
			TicketUnitID: unit.ID,
			ScannedBy:    scannedBy,
			Timestamp:    time.Now(),
		}
		if err := s.nats.Publish(models.EventCheckinRecorded, event); err != nil {
			slog.Warn("Failed to publish check-in event", "ticket_unit_id", unit.ID, "error", err)
		}

		return &models.ScanResponse{Status: models.ScanValid, Message: "welcome", UnitID: &unit.ID}, nil

	case models.UnitCheckedIn:
		metrics.CheckinsTotal.WithLabelValues("duplicate").Inc()
		return &models.ScanResponse{Status: models.ScanDuplicate, Message: "ticket already checked in", UnitID: &unit.ID}, nil

	case models.UnitRefunded, models.UnitCancelled:
		metrics.CheckinsTotal.WithLabelValues("refunded").Inc()
		return &models.ScanResponse{Status: models.ScanRefunded, Message: "ticket was refunded or cancelled", UnitID: &unit.ID}, nil

	default:
		// AVAILABLE or RESERVED: the order behind this token never settled
		metrics.CheckinsTotal.WithLabelValues("invalid").Inc()
		return &models.ScanResponse{Status: models.ScanInvalid, Message: "ticket was never sold"}, nil
	}
}
