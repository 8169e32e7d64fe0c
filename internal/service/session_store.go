package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

// SessionStore keeps chat sessions in memory, keyed by UUID. Sessions idle
// for longer than the TTL are dropped when a new session is created.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionStore creates a session store. A zero ttl keeps sessions forever.
func NewSessionStore(ttl time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		sessions: make(map[string]*domain.ChatSession),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.Named("sessions"),
	}
}

// Create starts a new empty session.
func (s *SessionStore) Create() *domain.ChatSession {
	now := s.now()
	session := domain.NewChatSession(uuid.NewString(), now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	s.sessions[session.ID] = session
	return session
}

// Get returns the session and marks it active.
func (s *SessionStore) Get(id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, port.ErrSessionNotFound
	}
	session.Touch(s.now())
	return session, nil
}

// Delete removes the session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, session := range s.sessions {
		if now.Sub(session.LastActive()) > s.ttl {
			delete(s.sessions, id)
			s.logger.Debug("session expired", zap.String("session", id))
		}
	}
}
