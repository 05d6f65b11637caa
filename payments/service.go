// Package payments implements the split-payment core: intent creation with
// platform fee computation, the reconciliation state machine that merges
// creation responses, webhook pushes, and client polling into a single
// authoritative ledger status, webhook signature verification, and the OAuth
// flow that links merchant gateway accounts.
package payments

import (
	"context"

	"go.uber.org/zap"

	"github.com/glowdesk/backend/config"
	"github.com/glowdesk/backend/gateway"
	"github.com/glowdesk/backend/store"
)

// GatewayAPI is the slice of the payment-gateway client the core consumes.
// Declared here so tests can substitute a scripted gateway.
type GatewayAPI interface {
	CreatePayment(ctx context.Context, accessToken string, req gateway.CreatePaymentRequest) (*gateway.Payment, error)
	GetPayment(ctx context.Context, accessToken, paymentID string) (*gateway.Payment, error)
	GetOrder(ctx context.Context, accessToken, orderID string) (*gateway.Order, error)
	ExchangeOAuthCode(ctx context.Context, req gateway.OAuthTokenRequest) (*gateway.OAuthTokenResponse, error)
}

// Service wires the core's dependencies. All state lives in the store;
// Service itself is safe for concurrent use by any number of request
// handlers.
type Service struct {
	store  *store.Store
	gw     GatewayAPI
	cfg    config.GatewayConfig
	logger *zap.Logger
}

// NewService creates the payments core service.
func NewService(st *store.Store, gw GatewayAPI, cfg config.GatewayConfig, logger *zap.Logger) *Service {
	return &Service{store: st, gw: gw, cfg: cfg, logger: logger}
}
