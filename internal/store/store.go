// Package store defines the expense store port implemented by the
// concrete backends (memory, sqlite, rest).
package store

import (
	"context"
	"errors"

	"spendtrack/internal/core"
)

// ErrNotFound signals that the referenced expense id does not exist.
// A delete of a missing id reports it too, never silent success.
var ErrNotFound = errors.New("expense not found")

// Store owns the set of expense records.
//
// List returns rows matching the filter ordered by date descending; the
// order among rows sharing a date is unspecified and callers must not
// rely on it. Create assigns ID and CreatedAt and expects UserID to be
// stamped by the caller from the authenticated identity. Update applies
// only the patch's supplied fields.
type Store interface {
	List(ctx context.Context, f core.Filter) ([]core.Expense, error)
	Get(ctx context.Context, id int64) (core.Expense, error)
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error)
	Delete(ctx context.Context, id int64) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
