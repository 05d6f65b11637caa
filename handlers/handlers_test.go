package handlers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/glowdesk/backend/config"
	"github.com/glowdesk/backend/gateway"
	"github.com/glowdesk/backend/models"
	"github.com/glowdesk/backend/payments"
	"github.com/glowdesk/backend/store"
)

// stubGateway scripts the payment gateway behind the service under test.
type stubGateway struct {
	createResp *gateway.Payment
	createErr  error
	payments   map[string]*gateway.Payment
	orders     map[string]*gateway.Order
	tokenResp  *gateway.OAuthTokenResponse
	tokenErr   error
}

func (s *stubGateway) CreatePayment(context.Context, string, gateway.CreatePaymentRequest) (*gateway.Payment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createResp, nil
}

func (s *stubGateway) GetPayment(_ context.Context, _, id string) (*gateway.Payment, error) {
	if p, ok := s.payments[id]; ok {
		return p, nil
	}
	return nil, &gateway.APIError{StatusCode: 404, Body: "not found"}
}

func (s *stubGateway) GetOrder(_ context.Context, _, id string) (*gateway.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, &gateway.APIError{StatusCode: 404, Body: "not found"}
}

func (s *stubGateway) ExchangeOAuthCode(context.Context, gateway.OAuthTokenRequest) (*gateway.OAuthTokenResponse, error) {
	if s.tokenErr != nil {
		return nil, s.tokenErr
	}
	return s.tokenResp, nil
}

type testEnv struct {
	handler *Handler
	store   *store.Store
	gw      *stubGateway
}

func newTestEnv(t *testing.T, webhookSecret string) *testEnv {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	gw := &stubGateway{
		payments: map[string]*gateway.Payment{},
		orders:   map[string]*gateway.Order{},
	}
	cfg := config.GatewayConfig{
		BaseURL:           "https://gateway.test",
		OAuthClientID:     "client-id",
		OAuthClientSecret: "client-secret",
		OAuthRedirectURI:  "https://platform.test/oauth/callback",
	}
	svc := payments.NewService(st, gw, cfg, zap.NewNop())

	return &testEnv{
		handler: New(svc, st, webhookSecret, zap.NewNop()),
		store:   st,
		gw:      gw,
	}
}

func (e *testEnv) seedTenant(t *testing.T, id string, status models.TenantStatus) {
	t.Helper()
	err := e.store.PutTenant(&models.Tenant{
		ID:           id,
		Name:         "Test Salon",
		Status:       status,
		SplitPercent: decimal.NewFromInt(10),
		Credentials:  models.GatewayCredentials{AccessToken: "tok_merchant"},
	})
	if err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}
}

func (e *testEnv) seedEntry(t *testing.T, token, intentID string, status models.LedgerStatus) {
	t.Helper()
	gross := decimal.NewFromInt(100)
	fee := decimal.NewFromInt(10)
	_, _, err := e.store.UpsertEntry(&models.LedgerEntry{
		CorrelationToken: token,
		IntentID:         intentID,
		TenantID:         "tnt-1",
		Gross:            gross,
		Fee:              fee,
		Net:              gross.Sub(fee),
		Status:           status,
	})
	if err != nil {
		t.Fatalf("failed to seed ledger entry: %v", err)
	}
}
