package payments

import (
	"errors"
	"fmt"

	"github.com/glowdesk/backend/gateway"
)

// Sentinel errors for merchant-side configuration problems. These carry
// actionable messages for the storefront and never trigger a ledger write.
var (
	// ErrTenantInactive means the tenant is missing or not ACTIVE.
	ErrTenantInactive = errors.New("business is not active and cannot accept payments")

	// ErrCredentialsMissing means the tenant has no linked gateway account.
	ErrCredentialsMissing = errors.New("business has not connected its payment gateway account")

	// ErrOAuthNotConfigured means the platform-level OAuth client id or
	// redirect URI is absent from configuration.
	ErrOAuthNotConfigured = errors.New("oauth client id and redirect uri are not configured")

	// ErrReconciliationNotFound means the lookup chain was exhausted without
	// a match. Not fatal: the ledger entry may not exist yet because the
	// webhook raced intent creation. Webhook handlers still acknowledge 200.
	ErrReconciliationNotFound = errors.New("no ledger entry matches the notification")

	// ErrLedgerConflict means both the primary-key and fallback-key status
	// updates affected zero rows. Recoverable: the entry keeps its prior
	// state and a later signal gets another chance.
	ErrLedgerConflict = errors.New("ledger status update matched no entry")

	// ErrMalformedTokenResponse means the gateway's token exchange returned
	// 2xx but no access token.
	ErrMalformedTokenResponse = errors.New("gateway token response lacks an access token")
)

// ValidationError reports caller-supplied data that fails a precondition.
// Never retried automatically; no ledger write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GatewayError is a non-2xx gateway response. Detail preserves the gateway's
// error payload for diagnostics; it never contains the tenant access token
// (the token travels only in the Authorization header, which is not echoed).
type GatewayError struct {
	StatusCode int
	Detail     string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error (HTTP %d): %s", e.StatusCode, e.Detail)
}

// ExchangeError is a failed OAuth code exchange. Codes are single-use, so a
// replayed code lands here; it is user-visible and recoverable (re-run the
// linking flow), never a crash.
type ExchangeError struct {
	StatusCode int
	Detail     string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth token exchange failed (HTTP %d): %s", e.StatusCode, e.Detail)
}

// TransientError is a network or timeout failure talking to the gateway.
// Safe to retry, but intent creation retries MUST mint a fresh correlation
// token: reusing one could conflate two gateway-side intents into one
// ledger row.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient gateway failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// classifyGatewayErr maps a gateway client error into the taxonomy: non-2xx
// responses become *GatewayError, everything else (DNS, dial, timeout,
// context cancellation) becomes *TransientError.
func classifyGatewayErr(err error) error {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return &GatewayError{StatusCode: apiErr.StatusCode, Detail: apiErr.Body}
	}
	return &TransientError{Err: err}
}
