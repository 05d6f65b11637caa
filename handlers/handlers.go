// Package handlers provides the HTTP boundary of the payments backend:
// intent creation, status polling, the inbound webhook endpoint, the OAuth
// linking callbacks, and the administrative tenant update path with its
// field whitelist.
//
// Handlers hold no state of their own. Every request is served by an
// independent goroutine and all coordination happens through the store, so
// duplicate and out-of-order webhook and poll arrivals are safe by
// construction.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/glowdesk/backend/payments"
	"github.com/glowdesk/backend/store"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	svc           *payments.Service
	store         *store.Store
	webhookSecret string
	logger        *zap.Logger
}

// New creates a Handler.
func New(svc *payments.Service, st *store.Store, webhookSecret string, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, store: st, webhookSecret: webhookSecret, logger: logger}
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseTimeParam reads an optional RFC3339 query parameter. Reports false
// after writing a 400 when the value is present but malformed.
func parseTimeParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" timestamp, expected RFC3339")
		return time.Time{}, false
	}
	return t, true
}

// writeDomainError maps the payments error taxonomy onto HTTP status codes.
// Validation and merchant-configuration errors propagate their message
// verbatim; upstream failures get the gateway's status class.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *payments.ValidationError
	var gatewayErr *payments.GatewayError
	var exchangeErr *payments.ExchangeError
	var transientErr *payments.TransientError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, payments.ErrTenantInactive),
		errors.Is(err, payments.ErrCredentialsMissing):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrTenantNotFound):
		writeError(w, http.StatusNotFound, "business not found")
	case errors.Is(err, payments.ErrReconciliationNotFound):
		writeError(w, http.StatusNotFound, "payment not found")
	case errors.As(err, &exchangeErr):
		writeError(w, http.StatusBadGateway, "gateway account linking failed, please try connecting again")
	case errors.As(err, &gatewayErr):
		writeError(w, http.StatusBadGateway, "payment gateway rejected the request")
	case errors.As(err, &transientErr):
		writeError(w, http.StatusGatewayTimeout, "payment gateway unreachable, please retry")
	case errors.Is(err, payments.ErrOAuthNotConfigured):
		writeError(w, http.StatusInternalServerError, "gateway linking is not configured on this platform")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
