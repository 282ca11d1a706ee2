package lockout

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	failures    int
	windowEnds  time.Time
	lockedUntil time.Time
}

// InMemory is the single-process Store.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]*entry), now: time.Now}
}

// WithClock replaces the clock used to expire windows.
func (s *InMemory) WithClock(now func() time.Time) *InMemory {
	s.now = now
	return s
}

func (s *InMemory) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	if !now.Before(e.windowEnds) {
		e.failures = 0
		e.windowEnds = now.Add(window)
	}
	e.failures++
	return e.failures, nil
}

func (s *InMemory) Lock(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.lockedUntil = until
	return nil
}

func (s *InMemory) LockedUntil(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.lockedUntil.IsZero() {
		return time.Time{}, false, nil
	}
	return e.lockedUntil, true, nil
}

func (s *InMemory) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
