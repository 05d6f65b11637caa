package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/glowdesk/backend/payments"
)

// createIntentBody is the request body for POST /payments.
type createIntentBody struct {
	Amount            json.Number `json:"amount"`
	Method            string      `json:"method"`
	PayerEmail        string      `json:"payer_email"`
	TenantID          string      `json:"tenant_id"`
	ExternalReference string      `json:"external_reference"`
	CardToken         string      `json:"card_token"`
	PayerDocType      string      `json:"payer_doc_type"`
	PayerDocNumber    string      `json:"payer_doc_number"`
	Description       string      `json:"description"`
}

// CreateIntent handles POST /payments.
//
// On a transient failure the client may retry, but must NOT resend the same
// external_reference: a fresh correlation token is minted per attempt so
// two gateway-side intents can never be conflated into one ledger row.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var body createIntentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := decimal.NewFromString(body.Amount.String())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	result, err := h.svc.CreateIntent(r.Context(), payments.IntentRequest{
		Amount:            amount,
		Method:            body.Method,
		PayerEmail:        body.PayerEmail,
		TenantID:          body.TenantID,
		ExternalReference: body.ExternalReference,
		CardToken:         body.CardToken,
		PayerDocType:      body.PayerDocType,
		PayerDocNumber:    body.PayerDocNumber,
		Description:       body.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// CheckStatus handles GET /payments/{id}/status?tenant_id=...
//
// This is the client polling fallback: a cheap ledger read, with a live
// gateway fetch behind it when the entry is still pending. The polling loop
// itself (3-second interval, 10-minute cap) lives client-side; abandoning
// it has no server-side effect.
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	intentID := r.PathValue("id")
	if intentID == "" {
		writeError(w, http.StatusBadRequest, "missing payment id in path")
		return
	}
	tenantID := r.URL.Query().Get("tenant_id")

	result, err := h.svc.CheckStatus(r.Context(), intentID, tenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListTransactions handles GET /tenants/{id}/transactions?from=&to= (RFC3339
// bounds, both optional). Reporting reads the ledger; it never writes it.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing tenant id in path")
		return
	}

	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, r, "to")
	if !ok {
		return
	}

	entries, err := h.store.ListByTenant(tenantID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
