package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/glowdesk/backend/payments"
)

// webhookBody is the gateway's notification shape: a resource type and an
// id. The id may arrive as a JSON number or string depending on resource
// type, hence json.Number.
type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// Webhook handles POST /webhooks/payments.
//
// The gateway sends either a JSON body {type, data:{id}} or a form-encoded
// body whose `data` field holds that same JSON. The x-signature and
// x-request-id headers authenticate the notification.
//
// Response policy: once a notification is accepted the endpoint answers 200
// even when the referenced ledger entry cannot be found yet — the entry may
// simply not exist because intent creation is racing the webhook, and a
// non-200 would make the gateway retry a case that is not a failure. Only a
// failed signature check (with a secret configured) is rejected outright.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := parseWebhookBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unparseable notification body")
		return
	}

	resourceID := body.Data.ID.String()

	if h.webhookSecret == "" {
		// Legacy mode for deployments without a configured secret: accept
		// unverified, but loudly. Production deployments should always set
		// the secret so verification fails closed.
		h.logger.Warn("webhook accepted WITHOUT signature verification: no shared secret configured",
			zap.String("type", body.Type))
	} else {
		ok := payments.VerifySignature(
			r.Header.Get("x-signature"),
			r.Header.Get("x-request-id"),
			resourceID,
			h.webhookSecret,
		)
		if !ok {
			// Security event. Log without the header contents so neither the
			// presented signature nor anything derived from the secret lands
			// in the logs.
			h.logger.Warn("webhook rejected: signature verification failed",
				zap.String("type", body.Type))
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	err = h.svc.HandleNotification(r.Context(), payments.Notification{
		Type: body.Type,
		ID:   resourceID,
	})
	switch {
	case err == nil:
	case errors.Is(err, payments.ErrReconciliationNotFound):
		// Entry not here yet; acknowledge so the gateway retries later.
		h.logger.Info("notification acknowledged before ledger entry exists",
			zap.String("type", body.Type), zap.String("resource_id", resourceID))
	case errors.Is(err, payments.ErrLedgerConflict):
		h.logger.Warn("notification applied no ledger change",
			zap.String("type", body.Type), zap.String("resource_id", resourceID))
	default:
		h.logger.Error("notification processing failed",
			zap.String("type", body.Type), zap.String("resource_id", resourceID),
			zap.Error(err))
	}

	// Always 200 once accepted; reconciliation failures are retried by the
	// gateway's own redelivery, not by error status codes.
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// parseWebhookBody decodes either encoding of the notification.
func parseWebhookBody(r *http.Request) (*webhookBody, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		raw := r.PostFormValue("data")
		var body webhookBody
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return nil, err
		}
		return &body, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var body webhookBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return &body, nil
}
