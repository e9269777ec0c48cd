package session

import (
	"context"
	"sync"
	"time"
)

// FreshnessWindow bounds how old a persisted snapshot may be.
// Older snapshots are treated as absent — a cache miss, never an error.
const FreshnessWindow = 5 * time.Minute

// Key returns the store key for a page's snapshot.
func Key(pageID string) string {
	return "gen-state-" + pageID
}

// Store persists session snapshots.
//
// Load returns (nil, nil) when no fresh snapshot exists: a miss is not an
// error. Save errors are surfaced so callers can count them, but the
// renderer treats persistence as best-effort and never fails a session
// over them.
type Store interface {
	// Save persists a snapshot under the page's key.
	Save(ctx context.Context, snap *Snapshot) error

	// Load retrieves the snapshot for a page id.
	// Snapshots older than FreshnessWindow are a miss.
	Load(ctx context.Context, pageID string) (*Snapshot, error)

	// Close releases store resources.
	Close() error
}

// fresh reports whether the snapshot is within the freshness window.
func fresh(snap *Snapshot, now time.Time) bool {
	return now.UnixMilli()-snap.Timestamp < FreshnessWindow.Milliseconds()
}

// MemoryStore is an in-process Store for tests and single-shot renders.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Snapshot
	clock   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
// A nil clock uses time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*Snapshot),
		clock:   clock,
	}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key(snap.PageID)] = snap
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, pageID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.entries[Key(pageID)]
	if !ok || !fresh(snap, s.clock()) {
		return nil, nil
	}
	return snap, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// Verify MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
