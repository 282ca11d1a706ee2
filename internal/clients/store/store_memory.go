// Package store persists the client aggregate: clients, their documents,
// payments and notes.
package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"taxdesk/internal/clients/models"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
)

// InMemoryClients keeps clients in a map keyed by ID.
type InMemoryClients struct {
	mu      sync.RWMutex
	clients map[id.ClientID]*models.Client
}

func NewInMemoryClients() *InMemoryClients {
	return &InMemoryClients{clients: make(map[id.ClientID]*models.Client)}
}

func (s *InMemoryClients) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemoryClients) Save(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c.Clone()
	return nil
}

// List returns matching clients, newest first.
func (s *InMemoryClients) List(_ context.Context, filter models.ListFilter) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if filter.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryClients) Delete(_ context.Context, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[clientID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.clients, clientID)
	return nil
}

// CountAssigned reports how many clients each admin is assigned.
func (s *InMemoryClients) CountAssigned(_ context.Context) (map[id.ActorID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[id.ActorID]int)
	for _, c := range s.clients {
		if c.AssignedAdminID != nil {
			counts[*c.AssignedAdminID]++
		}
	}
	return counts, nil
}

func sortNewestFirst(clients []*models.Client) {
	slices.SortFunc(clients, func(a, b *models.Client) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// InMemoryDocuments keeps documents in upload order.
type InMemoryDocuments struct {
	mu   sync.RWMutex
	docs []*models.Document
}

func NewInMemoryDocuments() *InMemoryDocuments {
	return &InMemoryDocuments{}
}

func (s *InMemoryDocuments) FindByID(_ context.Context, documentID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.ID == documentID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryDocuments) Save(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	for i, existing := range s.docs {
		if existing.ID == d.ID {
			s.docs[i] = &cp
			return nil
		}
	}
	s.docs = append(s.docs, &cp)
	return nil
}

func (s *InMemoryDocuments) ListByClient(_ context.Context, clientID id.ClientID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.docs {
		if d.ClientID == clientID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// List returns documents of every client in upload order. An empty status
// matches all of them.
func (s *InMemoryDocuments) List(_ context.Context, status models.DocumentStatus) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.docs {
		if status == "" || d.Status == status {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryDocuments) CountByStatus(_ context.Context) (map[models.DocumentStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.DocumentStatus]int)
	for _, d := range s.docs {
		counts[d.Status]++
	}
	return counts, nil
}

func (s *InMemoryDocuments) Delete(_ context.Context, documentID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.docs)
	s.docs = slices.DeleteFunc(s.docs, func(d *models.Document) bool { return d.ID == documentID })
	if len(s.docs) == n {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *InMemoryDocuments) DeleteByClient(_ context.Context, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = slices.DeleteFunc(s.docs, func(d *models.Document) bool { return d.ClientID == clientID })
	return nil
}

// InMemoryPayments is the append-only payment ledger.
type InMemoryPayments struct {
	mu       sync.RWMutex
	payments []models.Payment
}

func NewInMemoryPayments() *InMemoryPayments {
	return &InMemoryPayments{}
}

func (s *InMemoryPayments) Append(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, *p)
	return nil
}

func (s *InMemoryPayments) ListByClient(_ context.Context, clientID id.ClientID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.ClientID == clientID {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (s *InMemoryPayments) SumByClient(_ context.Context, clientID id.ClientID) (models.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum models.Money
	for _, p := range s.payments {
		if p.ClientID == clientID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (s *InMemoryPayments) DeleteByClient(_ context.Context, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = slices.DeleteFunc(s.payments, func(p models.Payment) bool { return p.ClientID == clientID })
	return nil
}

// InMemoryNotes keeps notes in creation order.
type InMemoryNotes struct {
	mu    sync.RWMutex
	notes []models.Note
}

func NewInMemoryNotes() *InMemoryNotes {
	return &InMemoryNotes{}
}

func (s *InMemoryNotes) Append(_ context.Context, n *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, *n)
	return nil
}

func (s *InMemoryNotes) ListByClient(_ context.Context, clientID id.ClientID) ([]*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Note
	for _, n := range s.notes {
		if n.ClientID == clientID {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (s *InMemoryNotes) DeleteByClient(_ context.Context, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = slices.DeleteFunc(s.notes, func(n models.Note) bool { return n.ClientID == clientID })
	return nil
}
