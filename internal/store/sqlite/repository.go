// Package sqlite implements the expense store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"spendtrack/internal/core"
	"spendtrack/internal/store"
)

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

const expenseColumns = "id, user_id, title, amount, category, date, created_at"

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e         core.Expense
		amount    string
		date      string
		createdAt string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &amount, &e.Category, &date, &createdAt); err != nil {
		return core.Expense{}, err
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	e.Amount = dec

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	e.Date = d

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = ts

	return e, nil
}

// List returns matching expenses ordered by date descending. The order of
// rows sharing a date is whatever SQLite returns; it is not specified.
func (r *Repository) List(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses"
	var (
		clauses []string
		args    []any
	)
	if f.HasSearch() {
		clauses = append(clauses, "LOWER(title) LIKE '%' || LOWER(?) || '%'")
		args = append(args, strings.TrimSpace(f.Search))
	}
	if f.HasCategory() {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, f.UserID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *Repository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	e.CreatedAt = r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses (user_id, title, amount, category, date, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.UserID, e.Title, e.Amount.String(), e.Category, e.Date.String(),
		e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return e, nil
}

func (r *Repository) Update(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	if err := p.Validate(); err != nil {
		return core.Expense{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	current, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense for update: %w", err)
	}

	updated := p.Apply(current)
	_, err = tx.ExecContext(ctx,
		"UPDATE expenses SET title = ?, amount = ?, category = ?, date = ? WHERE id = ?",
		updated.Title, updated.Amount.String(), updated.Category, updated.Date.String(), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
