package session

import (
	"time"

	"github.com/lshcatalog/viewer/internal/usecase"
	"github.com/patrickmn/go-cache"
)

// Store is an in-memory session store with sliding expiry
type Store struct {
	cache *cache.Cache
}

// NewStore creates a store whose sessions expire after ttl without access.
// Expired sessions are purged every cleanupInterval.
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	return &Store{
		cache: cache.New(ttl, cleanupInterval),
	}
}

// Save stores the session and resets its expiry
func (s *Store) Save(session *usecase.Session) {
	s.cache.Set(session.ID(), session, cache.DefaultExpiration)
}

// Get returns a live session
func (s *Store) Get(id string) (*usecase.Session, bool) {
	if x, found := s.cache.Get(id); found {
		session, ok := x.(*usecase.Session)
		return session, ok
	}
	return nil, false
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Size returns the number of stored sessions, including expired ones not yet purged
func (s *Store) Size() int {
	return s.cache.ItemCount()
}
