// Package idempotency replays the stored response of a write request when a
// client retries it with the same Idempotency-Key.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// Record is what is kept per key. A pending record marks a request that is
// still being processed.
type Record struct {
	Pending     bool   `json:"pending"`
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type Store interface {
	// Reserve claims key for a new request. When the key is already taken it
	// returns the existing record and false.
	Reserve(ctx context.Context, key string, ttl time.Duration) (Record, bool, error)
	// Complete stores the final response for a reserved key.
	Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error
	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error
}

type memoryEntry struct {
	rec     Record
	expires time.Time
}

// sweepInterval is the minimum time between scans for expired records.
const sweepInterval = time.Minute

// MemoryStore keeps records in process memory. Expired records are swept out
// by writes, at most once per sweepInterval.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	if e, ok := s.entries[key]; ok && now.Before(e.expires) {
		return e.rec, false, nil
	}
	s.entries[key] = memoryEntry{rec: Record{Pending: true}, expires: now.Add(ttl)}
	return Record{}, true, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	rec.Pending = false
	s.entries[key] = memoryEntry{rec: rec, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// sweep must be called with mu held.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}
