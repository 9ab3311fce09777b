package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
	"spendtrack/internal/store"
)

func mustExpense(t *testing.T, title, amount, category, date string) core.Expense {
	t.Helper()
	a, err := core.ParseAmount(amount)
	if err != nil {
		t.Fatalf("amount %q: %v", amount, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("date %q: %v", date, err)
	}
	return core.Expense{UserID: "u1", Title: title, Amount: a, Category: category, Date: d}
}

func TestCreateGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := mustExpense(t, "Coffee", "3.50", "Food", "2024-01-10")
	created, err := s.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("store-assigned fields missing: %+v", created)
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != in.Title || got.Category != in.Category || got.UserID != in.UserID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Amount.Equal(in.Amount) || got.Date.String() != in.Date.String() {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	s := New()
	ctx := context.Background()

	bad := mustExpense(t, "X", "1", "Food", "2024-01-01")
	bad.Amount = decimal.RequireFromString("-3")
	if _, err := s.Create(ctx, bad); !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	bad = mustExpense(t, "X", "1", "Food", "2024-01-01")
	bad.Amount = decimal.Zero
	if _, err := s.Create(ctx, bad); !core.IsValidationError(err) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
}

func TestListOrderAndFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, e := range []core.Expense{
		mustExpense(t, "Coffee", "3", "Food", "2024-01-10"),
		mustExpense(t, "DECAF", "4", "Food", "2024-03-01"),
		mustExpense(t, "Tea", "2", "Drinks", "2024-02-15"),
	} {
		if _, err := s.Create(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := s.List(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	if all[0].Title != "DECAF" || all[1].Title != "Tea" || all[2].Title != "Coffee" {
		t.Fatalf("not ordered by date desc: %v", []string{all[0].Title, all[1].Title, all[2].Title})
	}

	// "all" sentinel and empty filter are the same unrestricted list.
	sentinel, err := s.List(ctx, core.Filter{Category: core.CategoryAll})
	if err != nil {
		t.Fatalf("list sentinel: %v", err)
	}
	if len(sentinel) != len(all) {
		t.Fatalf("sentinel list differs: %d vs %d", len(sentinel), len(all))
	}
	for i := range all {
		if sentinel[i].ID != all[i].ID {
			t.Fatalf("sentinel order differs at %d", i)
		}
	}

	matched, err := s.List(ctx, core.Filter{Search: "cof"})
	if err != nil {
		t.Fatalf("list search: %v", err)
	}
	if len(matched) != 1 || matched[0].Title != "Coffee" {
		t.Fatalf("search result: %+v", matched)
	}

	food, err := s.List(ctx, core.Filter{Category: "Food"})
	if err != nil {
		t.Fatalf("list category: %v", err)
	}
	if len(food) != 2 {
		t.Fatalf("expected 2 food rows, got %d", len(food))
	}
}

func TestPartialUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.Create(ctx, mustExpense(t, "A", "5.00", "Food", "2024-01-01"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newAmount := decimal.RequireFromString("7.50")
	updated, err := s.Update(ctx, created.ID, core.ExpensePatch{Amount: &newAmount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Amount.Equal(newAmount) {
		t.Fatalf("amount not updated: %v", updated.Amount)
	}
	if updated.Title != "A" || updated.Category != "Food" || updated.Date.String() != "2024-01-01" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	if _, err := s.Update(ctx, 9999, core.ExpensePatch{Amount: &newAmount}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	neg := decimal.RequireFromString("-1")
	if _, err := s.Update(ctx, created.ID, core.ExpensePatch{Amount: &neg}); !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteThenGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.Create(ctx, mustExpense(t, "A", "5", "Food", "2024-01-01"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	// A second delete reports not-found rather than succeeding silently.
	if err := s.Delete(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
