package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStatus is the reconciled state of a transaction ledger entry.
//
// PENDING is the only non-terminal state. PAID is additionally sticky: once
// an entry is PAID no later signal of any kind may downgrade it. The
// reconciliation engine enforces both rules; the store merely provides the
// conditional-write primitives.
type LedgerStatus string

const (
	LedgerPending   LedgerStatus = "PENDING"
	LedgerPaid      LedgerStatus = "PAID"
	LedgerRejected  LedgerStatus = "REJECTED"
	LedgerCancelled LedgerStatus = "CANCELLED"
	LedgerRefunded  LedgerStatus = "REFUNDED"
)

// Terminal reports whether s admits no further transitions.
func (s LedgerStatus) Terminal() bool {
	return s == LedgerPaid || s == LedgerRejected || s == LedgerCancelled || s == LedgerRefunded
}

// CanTransition reports whether a ledger entry may move from one status to
// another. PENDING may move to any terminal state; terminal states admit no
// further transitions, which is what makes PAID sticky against late or
// out-of-order reconciliation signals. Equal statuses are a no-op rather
// than a transition, so repeated signals are idempotent.
func CanTransition(from, to LedgerStatus) bool {
	if from == to {
		return false
	}
	return from == LedgerPending
}

// LedgerEntry is the persisted record of a sale attempt.
//
// CorrelationToken doubles as the idempotency key: every reconciliation
// signal that references the same token resolves to the same entry
// regardless of how many times or in what order the signals arrive. Clients
// mint a fresh token per creation attempt so that a retried creation can
// never be conflated with the original.
//
// The token MAY be a composite of a local nonce and a gateway-assigned order
// id, joined by '|' (e.g. "pix_ab12cd34|ORD555"); reconciliation lookups
// therefore support substring containment as a last-resort match.
//
// Entries are never deleted. They remain as financial history even after the
// owning tenant is removed.
type LedgerEntry struct {
	// CorrelationToken is the caller-chosen external reference, unique per
	// creation attempt, and the primary key of the ledger.
	CorrelationToken string `json:"correlationToken"`

	// IntentID is the gateway-assigned payment or order identifier. It can
	// drift between creation time and callback time, so it is corrected
	// opportunistically during reconciliation.
	IntentID string `json:"intentId"`

	TenantID string `json:"tenantId"`

	// Gross is the full sale amount charged to the payer.
	Gross decimal.Decimal `json:"gross"`
	// Fee is the platform's share: round(Gross * split% / 100, 2).
	Fee decimal.Decimal `json:"fee"`
	// Net is what the merchant keeps: Gross - Fee.
	Net decimal.Decimal `json:"net"`

	Status LedgerStatus `json:"status"`

	// Gateway identifies which payment gateway processed the sale.
	Gateway string `json:"gateway"`
	// Method is the payment method used ("pix" or "card").
	Method string `json:"method"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
