package session

import (
	"context"
	"sync"
	"time"

	"taxdesk/internal/auth/models"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
)

// InMemory keeps sessions in a map. Expired sessions read as missing, the
// same way Redis TTLs behave.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]models.Session
	now      func() time.Time
}

type Option func(*InMemory)

func WithClock(now func() time.Time) Option {
	return func(s *InMemory) {
		s.now = now
	}
}

func New(opts ...Option) *InMemory {
	s := &InMemory{
		sessions: make(map[id.SessionID]models.Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *InMemory) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.sessions[sessionID]
	if !ok || found.IsExpired(s.now()) {
		return nil, sentinel.ErrNotFound
	}
	return &found, nil
}

func (s *InMemory) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// DeleteByActor removes every session of the actor and returns how many
// were removed.
func (s *InMemory) DeleteByActor(_ context.Context, actorID id.ActorID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, sess := range s.sessions {
		if sess.ActorID == actorID {
			delete(s.sessions, key)
			n++
		}
	}
	return n, nil
}
