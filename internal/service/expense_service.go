// Package service orchestrates expense operations across the store,
// the event stream and the stats cache.
package service

import (
	"context"
	"fmt"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/core"
	"spendtrack/internal/events"
	"spendtrack/internal/log"
	"spendtrack/internal/store"
)

// Publisher emits expense lifecycle events. The AMQP client satisfies it;
// tests use an in-memory recorder.
type Publisher interface {
	Publish(ctx context.Context, evt *events.ExpenseEvent) error
}

// ExpenseService is the unit the HTTP layer talks to. Mutations hit the
// store first; event publishing is best effort and never fails a request
// that already changed the store.
type ExpenseService struct {
	store     store.Store
	publisher Publisher
	stats     cache.Cache[core.Stats]
	logger    *log.Logger
	now       func() time.Time
}

// NewExpenseService wires a service. publisher and statsCache may be nil;
// the service then skips publishing and caches nothing.
func NewExpenseService(st store.Store, publisher Publisher, statsCache cache.Cache[core.Stats], logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentExpense)
	}
	return &ExpenseService{
		store:     st,
		publisher: publisher,
		stats:     statsCache,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns expenses matching the filter, newest date first.
func (s *ExpenseService) List(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	expenses, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Get returns a single expense by id.
func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// Create stores a new expense and publishes a created event.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, err := s.store.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.publish(ctx, events.NewExpenseEvent(events.ActionCreated, created))
	s.invalidateStats(created.UserID)
	return created, nil
}

// Update applies a partial update and publishes an updated event.
func (s *ExpenseService) Update(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	updated, err := s.store.Update(ctx, id, p)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	s.publish(ctx, events.NewExpenseEvent(events.ActionUpdated, updated))
	s.invalidateStats(updated.UserID)
	return updated, nil
}

// Delete removes an expense and publishes a deleted event. Deleting an
// id that does not exist reports store.ErrNotFound.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	// Read the row first so the event can carry the owner.
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	s.publish(ctx, events.NewDeleteEvent(id, e.UserID))
	s.invalidateStats(e.UserID)
	return nil
}

// Stats aggregates the expenses visible to the filter's scope. Results
// are cached per scope until the next mutation or TTL expiry. The cache
// key carries the current UTC year-month so a cached monthlySpend never
// leaks across a month boundary.
func (s *ExpenseService) Stats(ctx context.Context, f core.Filter) (core.Stats, error) {
	now := s.now()
	key := statsKey(f.UserID, now)
	if s.stats != nil {
		if cached, ok := s.stats.Get(key); ok {
			return cached, nil
		}
	}

	expenses, err := s.store.List(ctx, core.Filter{UserID: f.UserID})
	if err != nil {
		return core.Stats{}, fmt.Errorf("load expenses for stats: %w", err)
	}

	stats := core.ComputeStats(expenses, now)
	if s.stats != nil {
		s.stats.Set(key, stats)
	}
	return stats, nil
}

// Ping reports whether the backing store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the store. The publisher's connection belongs to the
// caller that opened it.
func (s *ExpenseService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, evt *events.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		// The store already changed; surfacing this as a request
		// failure would make the client retry a completed write.
		s.logger.ErrorContext(ctx, "failed to publish expense event",
			log.FieldOperation, log.OpPublish,
			log.FieldAction, evt.Action,
			log.FieldExpenseID, evt.ExpenseID,
			log.FieldError, err)
	}
}

func (s *ExpenseService) invalidateStats(userID string) {
	if s.stats == nil {
		return
	}
	now := s.now()
	s.stats.Delete(statsKey(userID, now))
	s.stats.Delete(statsKey("", now))
}

func statsKey(userID string, now time.Time) string {
	month := now.UTC().Format("2006-01")
	if userID == "" {
		return "stats:" + month + ":global"
	}
	return "stats:" + month + ":" + userID
}
