package memory

import (
	"context"
	"slices"
	"sync"

	audit "taxdesk/pkg/platform/audit"
)

// Store keeps entries in append order.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Sequence = int64(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

// List returns copies newest first.
func (s *Store) List(_ context.Context, filter audit.Filter) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Entry, 0)
	for _, e := range slices.Backward(s.entries) {
		if !filter.Matches(e) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}
