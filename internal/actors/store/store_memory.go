package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"taxdesk/internal/actors/models"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
)

// InMemory keeps staff accounts in a map keyed by ID with an email index.
type InMemory struct {
	mu      sync.RWMutex
	actors  map[id.ActorID]*models.Actor
	byEmail map[string]id.ActorID
}

func NewInMemory() *InMemory {
	return &InMemory{
		actors:  make(map[id.ActorID]*models.Actor),
		byEmail: make(map[string]id.ActorID),
	}
}

func (s *InMemory) FindByID(_ context.Context, actorID id.ActorID) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[actorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actorID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.actors[actorID].Clone(), nil
}

// Save inserts or replaces the actor. Another account already holding the
// email yields sentinel.ErrConflict.
func (s *InMemory) Save(_ context.Context, a *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(a.Email)
	if owner, taken := s.byEmail[email]; taken && owner != a.ID {
		return sentinel.ErrConflict
	}
	if prev, ok := s.actors[a.ID]; ok {
		delete(s.byEmail, strings.ToLower(prev.Email))
	}
	s.actors[a.ID] = a.Clone()
	s.byEmail[email] = a.ID
	return nil
}

// List returns every account ordered by creation time.
func (s *InMemory) List(_ context.Context) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		out = append(out, a.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Actor) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, actorID id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[actorID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(a.Email))
	delete(s.actors, actorID)
	return nil
}
