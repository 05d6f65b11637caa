package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/backend/gateway"
	"github.com/glowdesk/backend/models"
)

func signHeader(resourceID, requestID, ts, secret string) string {
	manifest := "id:" + strings.ToLower(resourceID) + ";request-id:" + requestID + ";ts:" + ts + ";"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return "ts=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestWebhook_JSONBodyApprovesPayment(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedTenant(t, "tnt-1", models.TenantActive)
	env.seedEntry(t, "pix_tok_1", "555001", models.LedgerPending)
	env.gw.payments["555001"] = &gateway.Payment{ID: 555001, Status: gateway.StatusApproved}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`{"type":"payment","data":{"id":555001}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	env.handler.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	entry, err := env.store.GetByCorrelationToken("pix_tok_1")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerPaid, entry.Status)
}

func TestWebhook_FormEncodedBody(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedTenant(t, "tnt-1", models.TenantActive)
	env.seedEntry(t, "pix_tok_1", "555001", models.LedgerPending)
	env.gw.payments["555001"] = &gateway.Payment{ID: 555001, Status: gateway.StatusApproved}

	form := url.Values{}
	form.Set("data", `{"type":"payment","data":{"id":"555001"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	env.handler.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	entry, err := env.store.GetByCorrelationToken("pix_tok_1")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerPaid, entry.Status)
}

func TestWebhook_ValidSignatureAccepted(t *testing.T) {
	const secret = "whsec_test"
	env := newTestEnv(t, secret)
	env.seedTenant(t, "tnt-1", models.TenantActive)
	env.seedEntry(t, "pix_tok_1", "555001", models.LedgerPending)
	env.gw.payments["555001"] = &gateway.Payment{ID: 555001, Status: gateway.StatusApproved}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`{"type":"payment","data":{"id":555001}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-request-id", "req-1")
	req.Header.Set("x-signature", signHeader("555001", "req-1", "1717171717", secret))
	rec := httptest.NewRecorder()

	env.handler.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	entry, _ := env.store.GetByCorrelationToken("pix_tok_1")
	assert.Equal(t, models.LedgerPaid, entry.Status)
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	env := newTestEnv(t, "whsec_test")
	env.seedTenant(t, "tnt-1", models.TenantActive)
	env.seedEntry(t, "pix_tok_1", "555001", models.LedgerPending)
	env.gw.payments["555001"] = &gateway.Payment{ID: 555001, Status: gateway.StatusApproved}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`{"type":"payment","data":{"id":555001}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-request-id", "req-1")
	req.Header.Set("x-signature", "ts=1,v1=deadbeef")
	rec := httptest.NewRecorder()

	env.handler.Webhook(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	// The rejected notification must not have touched the ledger.
	entry, _ := env.store.GetByCorrelationToken("pix_tok_1")
	assert.Equal(t, models.LedgerPending, entry.Status)
}

func TestWebhook_NoSecretLegacyAccept(t *testing.T) {
	// No configured secret: unsigned notifications are accepted (with a
	// warning) for backward compatibility with unconfigured deployments.
	env := newTestEnv(t, "")
	env.seedTenant(t, "tnt-1", models.TenantActive)
	env.seedEntry(t, "pix_tok_1", "555001", models.LedgerPending)
	env.gw.payments["555001"] = &gateway.Payment{ID: 555001, Status: gateway.StatusApproved}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`{"type":"payment","data":{"id":555001}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	env.handler.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_UnknownEntryStillAcknowledged(t *testing.T) {
	// The entry may not exist yet (intent creation racing the webhook);
	// a 200 keeps the gateway from treating the race as a delivery failure.
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`{"type":"payment","data":{"id":999999}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	env.handler.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_MalformedBody(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	env.handler.Webhook(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
