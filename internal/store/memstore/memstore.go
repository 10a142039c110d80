// Package memstore provides a thread-safe, in-memory implementation of
// [store.Store], suitable for tests and zero-dependency local runs.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/jmallard/simwatch/internal/store"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ store.Store = (*MemStore)(nil)

// MemStore holds the incident timeline in memory. The zero value is ready to
// use; populate it with [MemStore.Add] or construct with [New].
type MemStore struct {
	mu        sync.RWMutex
	incidents []store.Incident
}

// New returns a MemStore pre-populated with the given incidents.
func New(incidents ...store.Incident) *MemStore {
	s := &MemStore{}
	s.Add(incidents...)
	return s
}

// Add appends incidents to the timeline, keeping it sorted by timestamp.
func (s *MemStore) Add(incidents ...store.Incident) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents = append(s.incidents, incidents...)
	slices.SortStableFunc(s.incidents, func(a, b store.Incident) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// Query implements [store.Store.Query].
func (s *MemStore) Query(ctx context.Context, filter store.Filter) ([]store.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.EffectiveLimit()
	result := make([]store.Incident, 0, limit)
	for _, inc := range s.incidents {
		if !filter.Matches(inc) {
			continue
		}
		result = append(result, inc)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Ping implements [store.Store.Ping]. An in-memory store is always reachable.
func (s *MemStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored incidents.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.incidents)
}
