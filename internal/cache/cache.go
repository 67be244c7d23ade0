// Package cache provides a process-wide, in-memory keyed store with per-entry
// time-to-live. It backs the memoized read path for hot queries (a user's
// posts) and is injected as an explicit capability rather than used as an
// ambient singleton, so tests can supply an isolated instance per case.
//
// Consistency model: a single key's eviction is visible to subsequently
// issued reads of that key (the map is mutex-guarded), which is all the write
// path needs for read-your-writes behavior. There is no ordering guarantee
// between concurrent writers to different keys and no cross-process
// coherence; the cache is best-effort and absence of a hit never changes
// correctness, only cost.
package cache

import (
	"sync"
	"time"
)

// entry holds a cached value tagged with an absolute expiry.
type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a mutex-guarded TTL cache. Expired entries are dropped lazily on
// read and opportunistically swept after a threshold of lookups so memory
// stays bounded without a background goroutine.
//
// The zero value is not usable; construct with New.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	sweepN uint64

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// sweepEvery is the lookup count between opportunistic sweeps of expired
// entries.
const sweepEvery = 5000

// New returns an empty Store ready for use.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the live value stored under key, if any. Expired entries are
// treated as absent and removed.
func (s *Store) Get(key string) (any, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweep(now)
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !now.Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key with the given ttl. A non-positive ttl stores
// nothing.
func (s *Store) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := s.now()

	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	s.mu.Unlock()
}

// GetOrCompute returns the cached value for key when present and live;
// otherwise it calls compute, stores the result for ttl, and returns it.
// If compute fails nothing is stored and the error is returned.
//
// compute runs outside the store's lock, so two concurrent misses on the same
// key may both compute; the last writer wins. That is acceptable for a
// memoization cache where recomputation only costs time.
func (s *Store) GetOrCompute(key string, ttl time.Duration, compute func() (any, error)) (any, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	s.Put(key, v, ttl)
	return v, nil
}

// Invalidate unconditionally evicts any entry stored under key. It is
// idempotent: evicting an absent key is a no-op.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports the number of entries currently held, including any that have
// expired but not yet been swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// maybeSweep removes expired entries once every sweepEvery lookups.
// Caller must hold s.mu.
func (s *Store) maybeSweep(now time.Time) {
	s.sweepN++
	if s.sweepN < sweepEvery {
		return
	}
	s.sweepN = 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
