package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tessera/internal/errors"
	"tessera/internal/external"
	"tessera/internal/middleware"
	"tessera/internal/models"
	"tessera/internal/service"
	"tessera/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct{}

func (stubPublisher) Publish(string, interface{}) error { return nil }

type stubClasses struct{ class *models.TicketClass }

func (s *stubClasses) GetByID(_ context.Context, id uuid.UUID) (*models.TicketClass, error) {
	if s.class != nil && s.class.ID == id {
		return s.class, nil
	}
	return nil, nil
}

type stubOrders struct {
	reserveErr error
	order      *models.Order
}

func (s *stubOrders) Reserve(_ context.Context, class *models.TicketClass, buyerID int64, quantity int, totalAmount, platformFee decimal.Decimal) (*models.Order, error) {
	if s.reserveErr != nil {
		return nil, s.reserveErr
	}
	return &models.Order{
		ID:            uuid.New(),
		TicketClassID: class.ID,
		BuyerID:       buyerID,
		Status:        models.OrderAwaitingPayment,
		TotalAmount:   totalAmount,
		PlatformFee:   platformFee,
		ExpiresAt:     time.Now().Add(15 * time.Minute),
	}, nil
}

func (s *stubOrders) GetByID(context.Context, uuid.UUID) (*models.Order, error) {
	return s.order, nil
}
func (s *stubOrders) GetByBuyerID(context.Context, int64) ([]models.Order, error) { return nil, nil }
func (s *stubOrders) GetByPaymentIntentID(context.Context, string) (*models.Order, error) {
	return nil, nil
}
func (s *stubOrders) SetPaymentIntent(context.Context, uuid.UUID, string) error { return nil }
func (s *stubOrders) Finalize(context.Context, uuid.UUID, *models.Payment, []models.UnitToken) (bool, error) {
	return false, nil
}
func (s *stubOrders) Release(context.Context, uuid.UUID, string) (bool, error) { return false, nil }

type stubUnits struct{ unit *models.TicketUnit }

func (s *stubUnits) GetByID(_ context.Context, id uuid.UUID) (*models.TicketUnit, error) {
	if s.unit != nil && s.unit.ID == id {
		return s.unit, nil
	}
	return nil, nil
}
func (s *stubUnits) GetByOrderID(context.Context, uuid.UUID) ([]models.TicketUnit, error) {
	return nil, nil
}

type stubCheckIns struct{ admitted bool }

func (s *stubCheckIns) Record(context.Context, uuid.UUID, int64) (bool, error) {
	return s.admitted, nil
}

type testEnv struct {
	classes  *stubClasses
	orders   *stubOrders
	units    *stubUnits
	checkIns *stubCheckIns
	tokens   *token.Service
	router   *gin.Engine
}

// fakeAuth injects a fixed user id the way BasicAuth would.
func fakeAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.ContextWithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		classes:  &stubClasses{},
		orders:   &stubOrders{},
		units:    &stubUnits{},
		checkIns: &stubCheckIns{},
		tokens:   token.NewService("test-secret"),
	}

	pub := stubPublisher{}
	services := &service.Services{
		Reservation: service.NewReservationService(env.classes, env.orders, pub),
		Settlement:  service.NewSettlementService(env.orders, env.classes, env.units, env.tokens, &external.MockProvider{}, pub),
		CheckIn:     service.NewCheckInService(env.units, env.checkIns, env.tokens, pub),
	}
	h := NewHandlers(services, nil, &external.MockProvider{})

	router := gin.New()
	api := router.Group("/api", fakeAuth(1))
	{
		api.POST("/orders", h.CreateOrder)
		api.POST("/checkin", h.ValidateScan)
	}
	router.POST("/payments/notifications", h.OnPaymentUpdates)

	env.router = router
	return env
}

func (env *testEnv) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func seededClass() *models.TicketClass {
	eventID := uuid.New()
	return &models.TicketClass{
		ID:            uuid.New(),
		EventID:       eventID,
		Name:          "General",
		Price:         decimal.RequireFromString("10.00"),
		TotalQuantity: 10,
		MaxPerOrder:   4,
		Event: &models.Event{
			ID:           eventID,
			EndsAt:       time.Now().Add(24 * time.Hour),
			SaleStartsAt: time.Now().Add(-time.Hour),
		},
	}
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	env := newTestEnv(t)
	env.classes.class = seededClass()

	w := env.post(t, "/api/orders", models.CreateOrderRequest{
		TicketClassID: env.classes.class.ID,
		Quantity:      2,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, models.OrderAwaitingPayment, order.Status)
	assert.Equal(t, int64(1), order.BuyerID)
}

func TestCreateOrderErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		reserveErr error
		wantStatus int
	}{
		{"sold out maps to conflict", errors.ErrInsufficientInventory, http.StatusConflict},
		{"storage failure maps to 500", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.classes.class = seededClass()
			env.orders.reserveErr = tt.reserveErr

			w := env.post(t, "/api/orders", models.CreateOrderRequest{
				TicketClassID: env.classes.class.ID,
				Quantity:      1,
			})
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCreateOrderUnknownClass(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/orders", models.CreateOrderRequest{
		TicketClassID: uuid.New(),
		Quantity:      1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateScanValid(t *testing.T) {
	env := newTestEnv(t)
	env.checkIns.admitted = true

	unitID := uuid.New()
	tok := env.tokens.Generate(unitID, time.Now().Add(time.Hour))
	env.units.unit = &models.TicketUnit{
		ID:     unitID,
		Status: models.UnitSold,
		Token:  &tok,
	}

	w := env.post(t, "/api/checkin", models.ScanRequest{Token: tok})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ScanValid, resp.Status)
}

func TestValidateScanMalformedToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/api/checkin", models.ScanRequest{Token: "garbage"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ScanInvalid, resp.Status)
}

func TestPaymentWebhookUnknownIntentAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/payments/notifications", models.PaymentNotificationPayload{
		PaymentID: "pi_unknown",
		Status:    "succeeded",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentWebhookRejectsBadPayload(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/payments/notifications", gin.H{"status": "succeeded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
