package external

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentProvider creates payment intents against whichever gateway the
// process was started with. Settlement callbacks come back through the
// webhook handler, not through this interface.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*IntentResult, error)
}

type IntentResult struct {
	ClientSecret    string
	PaymentIntentID string
}

type PaymentConfig struct {
	Mode       string // "mock" or "gateway"
	BaseURL    string
	MerchantID string
	SecretKey  string
	Timeout    time.Duration
}

// NewProvider selects the provider implementation at process start.
func NewProvider(cfg PaymentConfig) PaymentProvider {
	if cfg.Mode == "mock" {
		return &MockProvider{}
	}
	return NewGatewayProvider(cfg)
}

// MockProvider simulates intent creation without calling any external
// service. The intent id is derived from the order id so tests and the
// mock-confirm endpoint can correlate the two.
type MockProvider struct{}

func (m *MockProvider) CreateIntent(_ context.Context, orderID uuid.UUID, _ decimal.Decimal) (*IntentResult, error) {
	id := fmt.Sprintf("mock_pi_%s", hexID(orderID))
	return &IntentResult{
		PaymentIntentID: id,
		ClientSecret:    fmt.Sprintf("%s_secret_%s", id, hexID(uuid.New())),
	}, nil
}

func hexID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// GatewayProvider talks to the hosted payment gateway over HTTP. Requests
// carry a SHA-256 token over the alphabetically sorted parameters plus the
// merchant credentials.
type GatewayProvider struct {
	baseURL    string
	merchantID string
	secretKey  string
	httpClient *http.Client
}

func NewGatewayProvider(cfg PaymentConfig) *GatewayProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GatewayProvider{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.MerchantID,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type gatewayInitRequest struct {
	MerchantID string `json:"merchantId"`
	Token      string `json:"token"`
	Amount     int64  `json:"amount"`
	OrderID    string `json:"orderId"`
	Currency   string `json:"currency"`
}

type gatewayInitResponse struct {
	Success         bool   `json:"success"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Status          string `json:"status"`
}

func (g *GatewayProvider) CreateIntent(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal) (*IntentResult, error) {
	// Gateway wants the amount in minor units
	minor := amount.Mul(decimal.NewFromInt(100)).IntPart()

	req := gatewayInitRequest{
		MerchantID: g.merchantID,
		Token: g.signParams(map[string]string{
			"Amount":   strconv.FormatInt(minor, 10),
			"Currency": "usd",
			"OrderId":  orderID.String(),
		}),
		Amount:   minor,
		OrderID:  orderID.String(),
		Currency: "usd",
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v1/intents", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	defer resp.Body.Close()

	var result gatewayInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("payment intent creation failed (status %q)", result.Status)
	}

	return &IntentResult{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.PaymentIntentID,
	}, nil
}

// signParams hashes the merchant credentials together with the sorted
// request parameters, per the gateway's token scheme.
func (g *GatewayProvider) signParams(params map[string]string) string {
	params["MerchantId"] = g.merchantID
	params["SecretKey"] = g.secretKey

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokenString string
	for _, key := range keys {
		tokenString += params[key]
	}

	hash := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(hash[:])
}
