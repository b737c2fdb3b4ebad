// Package storage provides statistics summary storage implementations.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore implements an in-memory store for sampler summaries.
// It is safe for concurrent use by multiple goroutines.
//
// MemoryStore keeps the latest summary per series in a map. If TTL is
// configured, a background goroutine removes stale summaries. Deployments
// that need summaries to survive the process or be read by other instances
// should use RedisStore instead.
type MemoryStore struct {
	mu        sync.RWMutex
	summaries map[string]Summary

	ttl           time.Duration
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	cleanupDone   chan struct{}
	stopped       bool
	stopMu        sync.Mutex
}

// NewMemoryStore creates a new in-memory summary store with no TTL.
// Summaries are kept until replaced or deleted.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		summaries: make(map[string]Summary),
	}
}

// NewMemoryStoreWithTTL creates an in-memory summary store with automatic
// TTL-based cleanup. A background goroutine periodically removes summaries
// older than ttl.
//
// Stop must be called when the store is no longer needed to release the
// cleanup goroutine. cleanupInterval defaults to one minute if not positive.
//
// Panics if ttl is not positive.
func NewMemoryStoreWithTTL(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		panic("TTL must be positive")
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	store := &MemoryStore{
		summaries:     make(map[string]Summary),
		ttl:           ttl,
		cleanupTicker: time.NewTicker(cleanupInterval),
		stopCleanup:   make(chan struct{}),
		cleanupDone:   make(chan struct{}),
	}

	go store.runCleanup()

	return store
}

// Stop gracefully shuts down the background cleanup goroutine, blocking
// until it has exited. Calling Stop multiple times or on a store without a
// TTL is safe and does nothing.
func (s *MemoryStore) Stop() {
	if s.cleanupTicker == nil {
		return
	}

	s.stopMu.Lock()
	defer s.stopMu.Unlock()

	if s.stopped {
		return
	}

	close(s.stopCleanup)
	<-s.cleanupDone
	s.cleanupTicker.Stop()
	s.stopped = true
}

func (s *MemoryStore) runCleanup() {
	defer close(s.cleanupDone)

	for {
		select {
		case <-s.cleanupTicker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup removes summaries older than the TTL.
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl == 0 {
		return
	}

	now := time.Now()
	for series, summary := range s.summaries {
		if now.Sub(summary.TakenAt) > s.ttl {
			delete(s.summaries, series)
		}
	}
}

// Put stores a summary for a series, replacing any existing one.
//
// Returns an error if the summary's Series field is empty or the context is
// canceled. Safe for concurrent use.
func (s *MemoryStore) Put(ctx context.Context, summary Summary) error {
	if summary.Series == "" {
		return fmt.Errorf("summary series cannot be empty")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[summary.Series] = summary
	return nil
}

// GetLatest retrieves the most recent summary for a series.
//
// Returns:
//   - summary: the stored summary (zero value if not found)
//   - found: true if a summary exists for this series
//   - error: context error if the context is canceled, nil otherwise
//
// Safe for concurrent use.
func (s *MemoryStore) GetLatest(ctx context.Context, series string) (Summary, bool, error) {
	select {
	case <-ctx.Done():
		return Summary{}, false, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, found := s.summaries[series]
	return summary, found, nil
}

// Len returns the number of summaries currently stored. Primarily useful for
// tests and metrics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.summaries)
}

// Delete removes the summary for a series, reporting whether one existed.
func (s *MemoryStore) Delete(series string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.summaries[series]
	delete(s.summaries, series)
	return existed
}
