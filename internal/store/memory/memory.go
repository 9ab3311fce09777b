// Package memory provides an in-process expense store. It is the default
// backend for local development and the fake the unit tests run against.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/store"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
	now    func() time.Time
}

func New() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// NewWithClock creates a store with an injected clock for tests.
func NewWithClock(now func() time.Time) *Store {
	return &Store{nextID: 1, now: now}
}

func (s *Store) List(_ context.Context, f core.Filter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	// Date descending. The stable sort keeps insertion order among equal
	// dates here, but that is an implementation detail, not a contract.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextID
	s.nextID++
	e.CreatedAt = s.now().UTC()
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) Update(_ context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	if err := p.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.items {
		if e.ID == id {
			s.items[i] = p.Apply(e)
			return s.items[i], nil
		}
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
