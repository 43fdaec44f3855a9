package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderStableIntentID(t *testing.T) {
	provider := &MockProvider{}
	orderID := uuid.New()

	first, err := provider.CreateIntent(context.Background(), orderID, decimal.NewFromInt(100))
	require.NoError(t, err)
	second, err := provider.CreateIntent(context.Background(), orderID, decimal.NewFromInt(100))
	require.NoError(t, err)

	// Intent id is derived from the order, secrets are fresh every time
	assert.Equal(t, first.PaymentIntentID, second.PaymentIntentID)
	assert.NotEqual(t, first.ClientSecret, second.ClientSecret)
	assert.Contains(t, first.PaymentIntentID, "mock_pi_")
}

func TestGatewayProviderCreateIntent(t *testing.T) {
	orderID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/intents", r.URL.Path)

		var req gatewayInitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "merchant-1", req.MerchantID)
		assert.Equal(t, orderID.String(), req.OrderID)
		assert.Equal(t, int64(2550), req.Amount) // 25.50 in minor units

		// Token: SHA-256 over sorted param values + credentials
		expected := sha256.Sum256([]byte(
			strconv.FormatInt(req.Amount, 10) + // Amount
				"usd" + // Currency
				"merchant-1" + // MerchantId
				req.OrderID + // OrderId
				"s3cret")) // SecretKey
		assert.Equal(t, hex.EncodeToString(expected[:]), req.Token)

		json.NewEncoder(w).Encode(gatewayInitResponse{
			Success:         true,
			PaymentIntentID: "pi_123",
			ClientSecret:    "pi_123_secret",
			Status:          "NEW",
		})
	}))
	defer srv.Close()

	provider := NewGatewayProvider(PaymentConfig{
		BaseURL:    srv.URL,
		MerchantID: "merchant-1",
		SecretKey:  "s3cret",
		Timeout:    5 * time.Second,
	})

	result, err := provider.CreateIntent(context.Background(), orderID, decimal.RequireFromString("25.50"))
	require.NoError(t, err)
	assert.Equal(t, "pi_123", result.PaymentIntentID)
	assert.Equal(t, "pi_123_secret", result.ClientSecret)
}

func TestGatewayProviderRejectedIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gatewayInitResponse{Success: false, Status: "REJECTED"})
	}))
	defer srv.Close()

	provider := NewGatewayProvider(PaymentConfig{BaseURL: srv.URL})

	_, err := provider.CreateIntent(context.Background(), uuid.New(), decimal.NewFromInt(10))
	assert.Error(t, err)
}

func TestNewProviderSelection(t *testing.T) {
	assert.IsType(t, &MockProvider{}, NewProvider(PaymentConfig{Mode: "mock"}))
	assert.IsType(t, &GatewayProvider{}, NewProvider(PaymentConfig{Mode: "gateway"}))
}
