package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/glowdesk/backend/store"
)

// UpdateTenant handles PUT /tenants/{id}, the generic administrative edit.
//
// The store enforces a field whitelist: only name, type, revenue_split,
// monthly_fee, status, description, address and image are ever applied, and
// anything else in the payload — credential fields in particular — is
// silently dropped. Direct credential writes go through the separate
// privileged path (X-Privileged-Update header), mirroring the principle of
// least privilege: a routine admin edit must never be able to clobber a
// merchant's gateway link.
func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing tenant id in path")
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	privileged := r.Header.Get("X-Privileged-Update") == "true"

	tenant, written, err := h.store.UpdateTenantFields(id, fields, privileged)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			writeError(w, http.StatusNotFound, "business not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Expose whether a write occurred, in the same style as the ledger's
	// write-avoidance: retrying an identical PUT is observable as a no-op.
	if written {
		w.Header().Set("X-Idempotency-Write", "true")
	} else {
		w.Header().Set("X-Idempotency-Write", "false")
	}

	writeJSON(w, http.StatusOK, tenant)
}

// GetTenant handles GET /tenants/{id}. Credential material is redacted: the
// storefront only needs to know whether the tenant can take payments.
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing tenant id in path")
		return
	}

	tenant, err := h.store.GetTenant(id)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			writeError(w, http.StatusNotFound, "business not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load business")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":             tenant.ID,
		"name":           tenant.Name,
		"type":           tenant.Type,
		"status":         tenant.Status,
		"description":    tenant.Description,
		"address":        tenant.Address,
		"image":          tenant.Image,
		"revenue_split":  tenant.SplitPercent,
		"monthly_fee":    tenant.MonthlyFee,
		"gateway_linked": tenant.Credentials.Present(),
	})
}
