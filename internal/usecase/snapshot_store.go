package usecase

import (
	"sync"

	"github.com/lshcatalog/viewer/internal/domain"
)

// SnapshotStore holds the current catalog snapshot.
// The pagination controller is its only writer; everything else reads.
type SnapshotStore struct {
	mu       sync.RWMutex
	snapshot *domain.CatalogSnapshot
}

// NewSnapshotStore creates a store holding an empty snapshot
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshot: domain.NewCatalogSnapshot(nil)}
}

// Current returns the snapshot in effect
func (s *SnapshotStore) Current() *domain.CatalogSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *SnapshotStore) replace(snapshot *domain.CatalogSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}
