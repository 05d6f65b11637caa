package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/glowdesk/backend/models"
	"github.com/glowdesk/backend/store"
)

func newEntry(token, intentID string) *models.LedgerEntry {
	gross := decimal.NewFromInt(100)
	fee := decimal.NewFromInt(10)
	return &models.LedgerEntry{
		CorrelationToken: token,
		IntentID:         intentID,
		TenantID:         "tnt-1",
		Gross:            gross,
		Fee:              fee,
		Net:              gross.Sub(fee),
		Status:           models.LedgerPending,
		Method:           "pix",
	}
}

func TestUpsertEntryCreateThenNoOp(t *testing.T) {
	s := newTestStore(t)

	first, created, err := s.UpsertEntry(newEntry("pix_tok_1", "100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first upsert")
	}

	// Re-submitting the identical entry is a no-op.
	second, created, err := s.UpsertEntry(newEntry("pix_tok_1", "100"))
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if created {
		t.Fatal("expected created=false on duplicate upsert")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("createdAt should not change on idempotent upsert")
	}
}

func TestUpsertEntryNeverDowngradesTerminalStatus(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.UpsertEntry(newEntry("pix_tok_1", "100")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.UpdateStatusByIntentID("100", models.LedgerPaid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A late optimistic PENDING upsert must not clobber PAID.
	stored, _, err := s.UpsertEntry(newEntry("pix_tok_1", "100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != models.LedgerPaid {
		t.Fatalf("expected PAID to stick, got %s", stored.Status)
	}
}

func TestGetByIntentID(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.UpsertEntry(newEntry("pix_tok_1", "100")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, err := s.GetByIntentID("100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.CorrelationToken != "pix_tok_1" {
		t.Fatalf("wrong entry: %+v", e)
	}

	if _, err := s.GetByIntentID("999"); !errors.Is(err, store.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestFindByCorrelationTokenContaining(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.UpsertEntry(newEntry("pix_abc123|ORD555", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Exact lookups by the gateway's half of the composite token miss...
	if _, err := s.GetByCorrelationToken("ORD555"); !errors.Is(err, store.ErrEntryNotFound) {
		t.Fatalf("expected exact lookup to miss, got %v", err)
	}
	// ...but substring containment finds the entry.
	e, err := s.FindByCorrelationTokenContaining("ORD555")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.CorrelationToken != "pix_abc123|ORD555" {
		t.Fatalf("wrong entry: %+v", e)
	}

	if _, err := s.FindByCorrelationTokenContaining("nope"); !errors.Is(err, store.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := s.FindByCorrelationTokenContaining(""); !errors.Is(err, store.ErrEntryNotFound) {
		t.Fatalf("empty substring must not match everything, got %v", err)
	}
}

func TestUpdateStatusByIntentIDFeedback(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.UpsertEntry(newEntry("pix_tok_1", "100")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	written, err := s.UpdateStatusByIntentID("100", models.LedgerPaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !written {
		t.Fatal("expected written=true for PENDING->PAID")
	}

	// Repeat: found, but the transition is a no-op.
	written, err = s.UpdateStatusByIntentID("100", models.LedgerPaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written {
		t.Fatal("expected written=false on idempotent repeat")
	}

	// Downgrade attempt: refused, not an error.
	written, err = s.UpdateStatusByIntentID("100", models.LedgerPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written {
		t.Fatal("expected written=false for terminal downgrade")
	}

	// Unknown key: affected-row feedback via ErrEntryNotFound.
	if _, err := s.UpdateStatusByIntentID("999", models.LedgerPaid); !errors.Is(err, store.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestUpdateStatusByCorrelationTokenCorrectsIntentID(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.UpsertEntry(newEntry("pix_tok_1", "old-id")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	written, err := s.UpdateStatusByCorrelationToken("pix_tok_1", models.LedgerPaid, "new-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !written {
		t.Fatal("expected written=true")
	}

	e, err := s.GetByCorrelationToken("pix_tok_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.IntentID != "new-id" {
		t.Fatalf("expected intent id corrected to new-id, got %q", e.IntentID)
	}
	if e.Status != models.LedgerPaid {
		t.Fatalf("expected PAID, got %s", e.Status)
	}

	// The index follows the correction.
	if _, err := s.GetByIntentID("new-id"); err != nil {
		t.Fatalf("expected index updated for new-id: %v", err)
	}
}

func TestListByTenantDateRange(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.UpsertEntry(newEntry("tok_a", "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other := newEntry("tok_b", "2")
	other.TenantID = "tnt-2"
	if _, _, err := s.UpsertEntry(other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := s.ListByTenant("tnt-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].CorrelationToken != "tok_a" {
		t.Fatalf("expected only tnt-1 entries, got %+v", entries)
	}

	// A window entirely in the past excludes today's entries.
	past := time.Now().UTC().Add(-48 * time.Hour)
	entries, err = s.ListByTenant("tnt-1", past, past.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty result for past window, got %d", len(entries))
	}
}
