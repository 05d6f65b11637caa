package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/glowdesk/backend/gateway"
	"github.com/glowdesk/backend/models"
	"github.com/glowdesk/backend/store"
)

// IntentRequest is a request to create a payment intent on behalf of a
// tenant. ExternalReference is optional; when empty a fresh correlation
// token is minted. Callers retrying after a TransientError must NOT reuse a
// token: leave it empty and let a new one be minted.
type IntentRequest struct {
	Amount     decimal.Decimal
	Method     string // gateway.MethodPix or gateway.MethodCard
	PayerEmail string
	TenantID   string

	// ExternalReference is the caller-chosen correlation token. May embed a
	// gateway order id in the composite "local|ORDxxx" form.
	ExternalReference string

	// CardToken is the client-side tokenized card, required for card
	// payments. Raw card numbers never reach this service.
	CardToken string

	// PayerDocType and PayerDocNumber identify the payer for card payments
	// (tax document, gateway-required).
	PayerDocType   string
	PayerDocNumber string

	Description string
}

// IntentResult is the outcome of a successful intent creation.
type IntentResult struct {
	IntentID         string          `json:"intentId"`
	CorrelationToken string          `json:"correlationToken"`
	Status           string          `json:"status"`
	StatusDetail     string          `json:"statusDetail,omitempty"`
	Fee              decimal.Decimal `json:"fee"`

	// PIX payloads, present for instant-transfer intents only.
	QRCode       string `json:"qrCode,omitempty"`
	QRCodeBase64 string `json:"qrCodeBase64,omitempty"`
}

// CreateIntent builds and submits a payment against the gateway using the
// tenant's stored credentials, computing the platform's split fee from the
// tenant configuration.
//
// Preconditions are checked in order, first failure wins: input validation,
// tenant ACTIVE, credentials present, card token present for card payments.
// No gateway call is made and no ledger row is written until all pass.
//
// On success a PENDING ledger entry is upserted under the correlation token,
// unless the gateway already returned a terminal status for a card payment,
// in which case that status is recorded directly (reconciliation channel A).
func (s *Service) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !strings.Contains(req.PayerEmail, "@") {
		return nil, &ValidationError{Field: "payer_email", Reason: "must be a valid email address"}
	}
	if req.TenantID == "" {
		return nil, &ValidationError{Field: "tenant_id", Reason: "must not be empty"}
	}
	if req.Method != gateway.MethodPix && req.Method != gateway.MethodCard {
		return nil, &ValidationError{Field: "method", Reason: "must be pix or card"}
	}

	tenant, err := s.store.GetTenant(req.TenantID)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			return nil, ErrTenantInactive
		}
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if tenant.Status != models.TenantActive {
		return nil, ErrTenantInactive
	}
	if !tenant.Credentials.Present() {
		return nil, ErrCredentialsMissing
	}
	if req.Method == gateway.MethodCard && req.CardToken == "" {
		return nil, &ValidationError{Field: "card_token", Reason: "required for card payments"}
	}

	token := req.ExternalReference
	if token == "" {
		token = mintCorrelationToken(req.Method)
	}

	fee := ComputeFee(req.Amount, tenant.EffectiveSplitPercent())

	gwReq := gateway.CreatePaymentRequest{
		TransactionAmount: req.Amount.InexactFloat64(),
		Description:       req.Description,
		Payer:             gateway.Payer{Email: req.PayerEmail},
		ApplicationFee:    fee.InexactFloat64(),
		ExternalReference: token,
		NotificationURL:   s.cfg.NotificationURL,
	}
	switch req.Method {
	case gateway.MethodPix:
		gwReq.PaymentMethodID = gateway.MethodPix
	case gateway.MethodCard:
		gwReq.Token = req.CardToken
		gwReq.Installments = 1
		if req.PayerDocNumber != "" {
			gwReq.Payer.Identification = &gateway.Identification{
				Type:   req.PayerDocType,
				Number: req.PayerDocNumber,
			}
		}
	}

	payment, err := s.gw.CreatePayment(ctx, tenant.Credentials.AccessToken, gwReq)
	if err != nil {
		err = classifyGatewayErr(err)
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			s.logger.Warn("payment creation rejected by gateway",
				zap.String("tenant_id", req.TenantID),
				zap.Int("gateway_status", gwErr.StatusCode))
		}
		return nil, err
	}

	entry := &models.LedgerEntry{
		CorrelationToken: token,
		IntentID:         strconv.FormatInt(payment.ID, 10),
		TenantID:         req.TenantID,
		Gross:            req.Amount,
		Fee:              fee,
		Net:              req.Amount.Sub(fee),
		Status:           mapGatewayStatus(payment.Status),
		Gateway:          "mercadopago",
		Method:           req.Method,
	}
	if _, _, err := s.store.UpsertEntry(entry); err != nil {
		return nil, fmt.Errorf("record ledger entry: %w", err)
	}

	s.logger.Info("payment intent created",
		zap.String("tenant_id", req.TenantID),
		zap.String("correlation_token", token),
		zap.String("intent_id", entry.IntentID),
		zap.String("status", payment.Status))

	result := &IntentResult{
		IntentID:         entry.IntentID,
		CorrelationToken: token,
		Status:           payment.Status,
		StatusDetail:     payment.StatusDetail,
		Fee:              fee,
	}
	if payment.PointOfInteraction != nil {
		result.QRCode = payment.PointOfInteraction.TransactionData.QRCode
		result.QRCodeBase64 = payment.PointOfInteraction.TransactionData.QRCodeBase64
	}
	return result, nil
}

// mintCorrelationToken generates a fresh per-attempt token. The method
// prefix keeps tokens human-scannable in the ledger.
func mintCorrelationToken(method string) string {
	return method + "_" + uuid.NewString()
}
