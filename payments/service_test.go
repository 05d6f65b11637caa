package payments

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/glowdesk/backend/config"
	"github.com/glowdesk/backend/gateway"
	"github.com/glowdesk/backend/models"
	"github.com/glowdesk/backend/store"
)

// fakeGateway is a scripted gateway for engine tests. Statuses returned by
// GetPayment/GetOrder come from the maps; call counters let tests assert
// that preconditions short-circuit before any gateway traffic.
type fakeGateway struct {
	createResp *gateway.Payment
	createErr  error

	payments map[string]*gateway.Payment
	orders   map[string]*gateway.Order

	exchangeResp *gateway.OAuthTokenResponse
	exchangeErr  error

	createCalls   int
	getCalls      int
	getOrderCalls int
	exchangeCalls int

	lastCreateReq   gateway.CreatePaymentRequest
	lastCreateToken string
	lastExchangeReq gateway.OAuthTokenRequest
}

func (f *fakeGateway) CreatePayment(_ context.Context, accessToken string, req gateway.CreatePaymentRequest) (*gateway.Payment, error) {
	f.createCalls++
	f.lastCreateReq = req
	f.lastCreateToken = accessToken
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeGateway) GetPayment(_ context.Context, _, paymentID string) (*gateway.Payment, error) {
	f.getCalls++
	if p, ok := f.payments[paymentID]; ok {
		return p, nil
	}
	return nil, &gateway.APIError{StatusCode: 404, Body: `{"message":"payment not found"}`}
}

func (f *fakeGateway) GetOrder(_ context.Context, _, orderID string) (*gateway.Order, error) {
	f.getOrderCalls++
	if o, ok := f.orders[orderID]; ok {
		return o, nil
	}
	return nil, &gateway.APIError{StatusCode: 404, Body: `{"message":"order not found"}`}
}

func (f *fakeGateway) ExchangeOAuthCode(_ context.Context, req gateway.OAuthTokenRequest) (*gateway.OAuthTokenResponse, error) {
	f.exchangeCalls++
	f.lastExchangeReq = req
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeResp, nil
}

func newTestService(t *testing.T) (*Service, *store.Store, *fakeGateway) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	gw := &fakeGateway{
		payments: map[string]*gateway.Payment{},
		orders:   map[string]*gateway.Order{},
	}
	cfg := config.GatewayConfig{
		BaseURL:           "https://gateway.test",
		OAuthClientID:     "client-id",
		OAuthClientSecret: "client-secret",
		OAuthRedirectURI:  "https://platform.test/oauth/callback",
		NotificationURL:   "https://platform.test/webhooks/payments",
	}

	return NewService(st, gw, cfg, zap.NewNop()), st, gw
}

// seedTenant provisions an ACTIVE, gateway-linked tenant with a 10% split.
func seedTenant(t *testing.T, st *store.Store, id string) {
	t.Helper()
	seedTenantWith(t, st, id, models.TenantActive, "10", "tok_merchant_"+id)
}

func seedTenantWith(t *testing.T, st *store.Store, id string, status models.TenantStatus, split, accessToken string) {
	t.Helper()
	err := st.PutTenant(&models.Tenant{
		ID:           id,
		Name:         "Test Barbershop",
		Status:       status,
		SplitPercent: decimal.RequireFromString(split),
		Credentials:  models.GatewayCredentials{AccessToken: accessToken},
	})
	if err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}
}
