package handlers

import "net/http"

// BeginOAuthLink handles GET /oauth/authorize?tenant_id=...
// Returns the gateway authorization URL the merchant's browser should visit
// to start the account linking flow.
func (h *Handler) BeginOAuthLink(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")

	url, err := h.svc.BuildAuthorizationURL(tenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"authorization_url": url})
}

// CompleteOAuthLink handles GET /oauth/callback?code=...&state=...
//
// The gateway redirects the merchant's browser here after authorization.
// The request arrives unauthenticated; the state parameter is the tenant id
// and the only correlation back to the tenant. A replayed or expired code
// fails at the gateway and surfaces as a recoverable error, so the merchant
// can simply restart the linking flow.
func (h *Handler) CompleteOAuthLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	err := h.svc.CompleteLink(r.Context(), q.Get("code"), q.Get("state"), q.Get("redirect_uri"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// Disconnect handles POST /tenants/{id}/disconnect: the explicit credential
// clear. Idempotent — disconnecting an already-disconnected tenant succeeds.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "missing tenant id in path")
		return
	}

	if err := h.svc.Disconnect(tenantID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
