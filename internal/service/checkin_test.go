package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tessera/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkInFixture struct {
	*settlementFixture
	checkIn *CheckInService
}

func newCheckInFixture(t *testing.T) *checkInFixture {
	t.Helper()
	f := newSettlementFixture(t)
	return &checkInFixture{
		settlementFixture: f,
		checkIn:           NewCheckInService(&fakeUnits{f.db}, &fakeCheckIns{f.db}, f.tokens, f.pub),
	}
}

// sellTicket walks one ticket all the way to SOLD and returns its
// redemption token.
func (f *checkInFixture) sellTicket(t *testing.T) string {
	t.Helper()
	class := f.db.seedClass("10.00", 3, 4)
	order, intentID := f.reserveAndCheckout(t, class, 1)

	_, err := f.settlement.Finalize(context.Background(), intentID)
	require.NoError(t, err)

	unit := f.db.units[order.Units[0].ID]
	require.NotNil(t, unit.Token)
	return *unit.Token
}

func TestScanValidThenDuplicate(t *testing.T) {
	f := newCheckInFixture(t)
	tok := f.sellTicket(t)

	resp, err := f.checkIn.Validate(context.Background(), 42, tok)
	require.NoError(t, err)
	assert.Equal(t, models.ScanValid, resp.Status)
	require.NotNil(t, resp.UnitID)
	assert.Equal(t, models.UnitCheckedIn, f.db.units[*resp.UnitID].Status)
	assert.Equal(t, 1, f.pub.count(models.EventCheckinRecorded))

	resp, err = f.checkIn.Validate(context.Background(), 42, tok)
	require.NoError(t, err)
	assert.Equal(t, models.ScanDuplicate, resp.Status)
	assert.Equal(t, 1, f.pub.count(models.EventCheckinRecorded), "duplicate scan publishes nothing")
}

func TestScanGarbageToken(t *testing.T) {
	f := newCheckInFixture(t)

	for _, tok := range []string{"", "not-base64!!", "aGVsbG8gd29ybGQ="} {
		resp, err := f.checkIn.Validate(context.Background(), 42, tok)
		require.NoError(t, err)
		assert.Equal(t, models.ScanInvalid, resp.Status, "token %q", tok)
	}
}

func TestScanTokenForUnknownUnit(t *testing.T) {
	f := newCheckInFixture(t)
	tok := f.tokens.Generate(uuid.New(), time.Now().Add(time.Hour))

	resp, err := f.checkIn.Validate(context.Background(), 42, tok)
	require.NoError(t, err)
	assert.Equal(t, models.ScanInvalid, resp.Status)
}

func TestScanTokenNotBoundToUnit(t *testing.T) {
	f := newCheckInFixture(t)
	class := f.db.seedClass("10.00", 1, 4)

	var unitID uuid.UUID
	for id, unit := range f.db.units {
		if unit.TicketClassID == class.ID {
			unitID = id
		}
	}

	// Signature verifies, but the unit never settled and carries no token
	tok := f.tokens.Generate(unitID, time.Now().Add(time.Hour))

	resp, err := f.checkIn.Validate(context.Background(), 42, tok)
	require.NoError(t, err)
	assert.Equal(t, models.ScanInvalid, resp.Status)
}

func TestScanRefundedTicket(t *testing.T) {
	f := newCheckInFixture(t)
	tok := f.sellTicket(t)

	ok, unitID := f.tokens.Validate(tok)
	require.True(t, ok)
	f.db.units[unitID].Status = models.UnitRefunded

	resp, err := f.checkIn.Validate(context.Background(), 42, tok)
	require.NoError(t, err)
	assert.Equal(t, models.ScanRefunded, resp.Status)
}

func TestConcurrentScansAdmitOnce(t *testing.T) {
	f := newCheckInFixture(t)
	tok := f.sellTicket(t)

	const scanners = 16
	results := make(chan string, scanners)

	var wg sync.WaitGroup
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(scannerID int64) {
			defer wg.Done()
			resp, err := f.checkIn.Validate(context.Background(), scannerID, tok)
			if err != nil {
				results <- err.Error()
				return
			}
			results <- resp.Status
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	valid, duplicate := 0, 0
	for status := range results {
		switch status {
		case models.ScanValid:
			valid++
		case models.ScanDuplicate:
			duplicate++
		default:
			t.Fatalf("unexpected scan status %q", status)
		}
	}

	assert.Equal(t, 1, valid, "exactly one scanner admits the ticket")
	assert.Equal(t, scanners-1, duplicate)
}
