package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/cache"
	"spendtrack/internal/core"
	"spendtrack/internal/events"
	"spendtrack/internal/store"
	"spendtrack/internal/store/memory"
)

// recordingPublisher collects events and optionally fails every publish.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.ExpenseEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt *events.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, evt := range p.events {
		out[i] = evt.Action
	}
	return out
}

func newExpense(t *testing.T, title, amount, category, date string) core.Expense {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	return core.Expense{
		UserID:   "u1",
		Title:    title,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     d,
	}
}

func TestCreatePublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil, nil)

	created, err := svc.Create(context.Background(), newExpense(t, "Coffee", "3.50", "Food", "2025-06-01"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got := pub.actions()
	if len(got) != 1 || got[0] != events.ActionCreated {
		t.Fatalf("published actions %v, want [created]", got)
	}
	if pub.events[0].ExpenseID != created.ID || pub.events[0].UserID != "u1" {
		t.Fatalf("event payload: %+v", pub.events[0])
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(memory.New(), pub, nil, nil)

	created, err := svc.Create(context.Background(), newExpense(t, "Coffee", "3.50", "Food", "2025-06-01"))
	if err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}

	// The write went through even though the event did not.
	if _, err := svc.Get(context.Background(), created.ID); err != nil {
		t.Fatalf("get after create: %v", err)
	}
}

func TestUpdateAndDeleteEvents(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, newExpense(t, "Coffee", "3.50", "Food", "2025-06-01"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Espresso"
	if _, err := svc.Update(ctx, created.ID, core.ExpensePatch{Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{events.ActionCreated, events.ActionUpdated, events.ActionDeleted}
	got := pub.actions()
	if len(got) != len(want) {
		t.Fatalf("published actions %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("published actions %v, want %v", got, want)
		}
	}
	if last := pub.events[2]; last.UserID != "u1" {
		t.Fatalf("delete event missing owner: %+v", last)
	}
}

func TestDeleteMissingExpense(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil, nil, nil)

	err := svc.Delete(context.Background(), 99)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestStatsCachedUntilMutation(t *testing.T) {
	statsCache := cache.NewLRUCache[core.Stats](8, time.Minute)
	svc := NewExpenseService(memory.New(), nil, statsCache, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, newExpense(t, "Coffee", "3.50", "Food", "2025-06-01")); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.Stats(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !first.TotalBalance.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("total %s, want 3.5", first.TotalBalance)
	}
	if statsCache.Size() == 0 {
		t.Fatal("expected stats snapshot to be cached")
	}

	if _, err := svc.Create(ctx, newExpense(t, "Tea", "1.50", "Food", "2025-06-02")); err != nil {
		t.Fatalf("create: %v", err)
	}

	second, err := svc.Stats(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !second.TotalBalance.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("total %s after mutation, want 5", second.TotalBalance)
	}
}

func TestStatsCacheRollsOverMonth(t *testing.T) {
	statsCache := cache.NewLRUCache[core.Stats](8, time.Hour)
	svc := NewExpenseService(memory.New(), nil, statsCache, nil)
	ctx := context.Background()

	now := time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if _, err := svc.Create(ctx, newExpense(t, "Coffee", "3.50", "Food", "2025-06-30")); err != nil {
		t.Fatalf("create: %v", err)
	}

	june, err := svc.Stats(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !june.MonthlySpend.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("june spend %s, want 3.5", june.MonthlySpend)
	}

	// Cross the month boundary without touching the store. The cached
	// snapshot is still fresh by TTL but keyed to June, so July must
	// be recomputed with an empty monthly spend.
	now = time.Date(2025, 7, 1, 0, 30, 0, 0, time.UTC)

	july, err := svc.Stats(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !july.MonthlySpend.IsZero() {
		t.Fatalf("july spend %s, want 0", july.MonthlySpend)
	}
	if !july.TotalBalance.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("total %s, want 3.5", july.TotalBalance)
	}
}

func TestStatsScopedByUser(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil, nil, nil)
	ctx := context.Background()

	mine := newExpense(t, "Coffee", "3.50", "Food", "2025-06-01")
	theirs := newExpense(t, "Taxi", "20", "Transport", "2025-06-01")
	theirs.UserID = "u2"

	if _, err := svc.Create(ctx, mine); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, theirs); err != nil {
		t.Fatalf("create: %v", err)
	}

	stats, err := svc.Stats(ctx, core.Filter{UserID: "u1"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.TotalBalance.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("scoped total %s, want 3.5", stats.TotalBalance)
	}
}
