package usecase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lshcatalog/viewer/internal/domain"
	"github.com/lshcatalog/viewer/internal/pkg/logger"
)

// SessionStore keeps viewer sessions for the lifetime of the process
type SessionStore interface {
	Save(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// SessionService creates and looks up viewer sessions
type SessionService struct {
	store  SessionStore
	client domain.CatalogClient
	logger logger.Logger
	config SessionConfig
	newID  func() string
}

// NewSessionService creates a session service with dependencies
func NewSessionService(
	store SessionStore,
	client domain.CatalogClient,
	log logger.Logger,
	config SessionConfig,
) *SessionService {
	return &SessionService{
		store:  store,
		client: client,
		logger: log,
		config: config,
		newID:  uuid.NewString,
	}
}

// Create starts a new empty session
func (s *SessionService) Create() *Session {
	session := NewSession(s.newID(), s.client, s.logger, s.config)
	s.store.Save(session)

	s.logger.Info(sessionModule, "session created", map[string]interface{}{
		"session": session.ID(),
	})

	return session
}

// Get returns a live session and refreshes its expiry
func (s *SessionService) Get(id string) (*Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.store.Save(session)
	return session, nil
}

// GetOrCreate returns the session for id, or a new one when it is unknown
func (s *SessionService) GetOrCreate(id string) (*Session, bool) {
	if session, err := s.Get(id); err == nil {
		return session, false
	}
	return s.Create(), true
}

// End discards a session
func (s *SessionService) End(id string) {
	s.store.Delete(id)
}
