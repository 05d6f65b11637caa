package store

import (
	"bytes"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/glowdesk/backend/models"
)

// UpsertEntry inserts a ledger entry keyed by its correlation token, or
// merges into an existing one.
//
// Idempotency guarantee: re-submitting the same entry is a no-op. On merge,
// the status moves only along the transition table (so a terminal status is
// never clobbered back to PENDING by a late optimistic insert), and a
// non-empty incoming intent id overwrites a stale one, keeping the intent
// index current.
//
// Returns (stored, created, err); created is false when the token already
// existed.
func (s *Store) UpsertEntry(e *models.LedgerEntry) (*models.LedgerEntry, bool, error) {
	var result models.LedgerEntry
	created := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ledgerBucket)
		idx := tx.Bucket(intentIndexBucket)
		key := []byte(e.CorrelationToken)

		raw := b.Get(key)
		if raw == nil {
			now := time.Now().UTC()
			e.CreatedAt = now
			e.UpdatedAt = now

			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
			if e.IntentID != "" {
				if err := idx.Put([]byte(e.IntentID), key); err != nil {
					return err
				}
			}
			result = *e
			created = true
			return nil
		}

		var existing models.LedgerEntry
		if err := json.Unmarshal(raw, &existing); err != nil {
			return err
		}

		changed := false
		if e.IntentID != "" && e.IntentID != existing.IntentID {
			if existing.IntentID != "" {
				if err := idx.Delete([]byte(existing.IntentID)); err != nil {
					return err
				}
			}
			if err := idx.Put([]byte(e.IntentID), key); err != nil {
				return err
			}
			existing.IntentID = e.IntentID
			changed = true
		}
		if models.CanTransition(existing.Status, e.Status) {
			existing.Status = e.Status
			changed = true
		}

		if !changed {
			result = existing
			return nil
		}

		existing.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(&existing)
		if err != nil {
			return err
		}
		result = existing
		return b.Put(key, data)
	})
	if err != nil {
		return nil, false, err
	}

	return &result, created, nil
}

// GetByCorrelationToken retrieves a ledger entry by its exact correlation
// token. Returns ErrEntryNotFound if the key does not exist.
func (s *Store) GetByCorrelationToken(token string) (*models.LedgerEntry, error) {
	var e models.LedgerEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(ledgerBucket).Get([]byte(token))
		if raw == nil {
			return ErrEntryNotFound
		}
		return json.Unmarshal(raw, &e)
	})
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// GetByIntentID retrieves a ledger entry by the gateway intent id. The
// intent index is consulted first; if the id was never indexed (id drift
// between creation and callback) a full scan over the stored entries is the
// fallback. Returns ErrEntryNotFound when nothing matches.
func (s *Store) GetByIntentID(intentID string) (*models.LedgerEntry, error) {
	var e models.LedgerEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(ledgerBucket)

		if key := tx.Bucket(intentIndexBucket).Get([]byte(intentID)); key != nil {
			if raw := b.Get(key); raw != nil {
				return json.Unmarshal(raw, &e)
			}
		}

		found := false
		err := b.ForEach(func(k, v []byte) error {
			if found {
				return nil
			}
			var candidate models.LedgerEntry
			if err := json.Unmarshal(v, &candidate); err != nil {
				return err
			}
			if candidate.IntentID == intentID {
				e = candidate
				found = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if !found {
			return ErrEntryNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// FindByCorrelationTokenContaining returns the first entry whose correlation
// token contains the given substring. Bolt iterates keys in byte order, so
// the match is deterministic. Handles the composite "local|ORDxxx" token
// format where callbacks only carry the gateway's half of the key. Returns
// ErrEntryNotFound when nothing matches.
func (s *Store) FindByCorrelationTokenContaining(substr string) (*models.LedgerEntry, error) {
	if substr == "" {
		return nil, ErrEntryNotFound
	}

	var e models.LedgerEntry
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(ledgerBucket).Cursor()
		needle := []byte(substr)
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if bytes.Contains(k, needle) {
				found = true
				return json.Unmarshal(v, &e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrEntryNotFound
	}

	return &e, nil
}

// ListByTenant returns the tenant's ledger entries created within [from, to].
// Zero time bounds are unbounded on that side. Returns an empty slice rather
// than nil so the JSON encoder emits [] instead of null.
func (s *Store) ListByTenant(tenantID string, from, to time.Time) ([]models.LedgerEntry, error) {
	var items []models.LedgerEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(ledgerBucket).ForEach(func(k, v []byte) error {
			var e models.LedgerEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if e.TenantID != tenantID {
				return nil
			}
			if !from.IsZero() && e.CreatedAt.Before(from) {
				return nil
			}
			if !to.IsZero() && e.CreatedAt.After(to) {
				return nil
			}
			items = append(items, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []models.LedgerEntry{}
	}
	return items, nil
}

// UpdateStatusByIntentID applies a status transition to the entry resolved
// by gateway intent id.
//
// Affected-row feedback: returns ErrEntryNotFound when no entry resolves
// (the caller's cue to retry by correlation token), (false, nil) when the
// entry was found but the transition table refused the move (already
// terminal, or a repeat of the current status — both successful no-ops),
// and (true, nil) when the status actually changed.
func (s *Store) UpdateStatusByIntentID(intentID string, status models.LedgerStatus) (bool, error) {
	written := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ledgerBucket)

		key := tx.Bucket(intentIndexBucket).Get([]byte(intentID))
		var raw []byte
		if key != nil {
			raw = b.Get(key)
		}
		if raw == nil {
			// Index miss: scan for a matching IntentID field.
			c := b.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				var candidate models.LedgerEntry
				if err := json.Unmarshal(v, &candidate); err != nil {
					return err
				}
				if candidate.IntentID == intentID {
					key, raw = k, v
					break
				}
			}
		}
		if raw == nil {
			return ErrEntryNotFound
		}

		var e models.LedgerEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}

		if !models.CanTransition(e.Status, status) {
			return nil
		}

		e.Status = status
		e.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&e)
		if err != nil {
			return err
		}
		written = true
		return b.Put(key, data)
	})
	if err != nil {
		return false, err
	}

	return written, nil
}

// UpdateStatusByCorrelationToken applies a status transition to the entry
// keyed by the exact correlation token, and additionally corrects the
// stored intent id to the one now known (re-indexing it) when intentID is
// non-empty and differs. This is the fallback write path for id drift
// between creation-time and callback-time identifiers.
//
// Returns ErrEntryNotFound when the token matches nothing; (true, nil) when
// the status changed; (false, nil) when the transition was a no-op (the
// intent-id correction is still applied in that case).
func (s *Store) UpdateStatusByCorrelationToken(token string, status models.LedgerStatus, intentID string) (bool, error) {
	written := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ledgerBucket)
		idx := tx.Bucket(intentIndexBucket)
		key := []byte(token)

		raw := b.Get(key)
		if raw == nil {
			return ErrEntryNotFound
		}

		var e models.LedgerEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}

		changed := false
		if intentID != "" && intentID != e.IntentID {
			if e.IntentID != "" {
				if err := idx.Delete([]byte(e.IntentID)); err != nil {
					return err
				}
			}
			if err := idx.Put([]byte(intentID), key); err != nil {
				return err
			}
			e.IntentID = intentID
			changed = true
		}
		if models.CanTransition(e.Status, status) {
			e.Status = status
			written = true
			changed = true
		}

		if !changed {
			return nil
		}

		e.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(&e)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
	if err != nil {
		return false, err
	}

	return written, nil
}
