// Package store provides a BoltDB-backed persistence layer for tenants and
// the transaction ledger.
//
// BoltDB is an embedded key/value store: all data lives in a single file and
// every Update runs in a serializable write transaction. That gives the
// reconciliation engine the two properties it depends on:
//
//   - conditional writes with affected-row feedback (an update that matches
//     no key, or whose status transition is refused, reports so instead of
//     silently succeeding), and
//   - isolation between racing reconciliation signals, since Bolt serializes
//     writers. Two signals for the same payment can never interleave their
//     read-check-write sequences.
//
// No reconciliation policy lives here beyond the status transition table in
// the models package; the engine decides what to write, the store decides
// only whether the write is structurally possible.
package store

import (
	"errors"
	"time"

	bolt "github.com/boltdb/bolt"
)

var (
	tenantsBucket = []byte("tenants")
	ledgerBucket  = []byte("ledger")
	// intentIndexBucket maps a gateway intent id to the correlation token
	// keying the ledger entry, so webhook lookups by intent id are a single
	// point read instead of a scan.
	intentIndexBucket = []byte("ledger_intent_idx")
)

// ErrTenantNotFound is returned when a requested tenant does not exist.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrEntryNotFound is returned when a ledger lookup matches nothing.
var ErrEntryNotFound = errors.New("ledger entry not found")

// Store wraps a BoltDB database and exposes tenant and ledger operations.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) a BoltDB database at the given path and ensures all
// buckets exist. Bucket creation is idempotent and safe on every startup.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{tenantsBucket, ledgerBucket, intentIndexBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}
