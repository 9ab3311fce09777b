// Package worker consumes expense lifecycle events and appends them to
// a local audit log.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"spendtrack/internal/events"
	"spendtrack/internal/log"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id  TEXT NOT NULL UNIQUE,
	action      TEXT NOT NULL,
	expense_id  INTEGER NOT NULL,
	user_id     TEXT NOT NULL,
	amount      TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	occurred_at TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_expense ON audit_log(expense_id);
CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_log(user_id);
`

// AuditEntry is one recorded lifecycle event.
type AuditEntry struct {
	ID         int64
	MessageID  string
	Action     string
	ExpenseID  int64
	UserID     string
	Amount     string
	Category   string
	OccurredAt time.Time
	RecordedAt time.Time
}

// AuditWorker records every expense event it sees. Broker redeliveries
// are expected; the UNIQUE message_id makes recording idempotent.
type AuditWorker struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// NewAuditWorker opens (or creates) the audit database at dbPath.
func NewAuditWorker(dbPath string, logger *log.Logger) (*AuditWorker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}

	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	}
	return &AuditWorker{db: db, logger: logger, now: time.Now}, nil
}

// HandleEvent records one event. Safe to call again with the same
// message id; the duplicate insert is ignored.
func (w *AuditWorker) HandleEvent(ctx context.Context, evt *events.ExpenseEvent) error {
	if evt.MessageID == "" {
		return fmt.Errorf("event without message id")
	}

	res, err := w.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO audit_log
			(message_id, action, expense_id, user_id, amount, category, occurred_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.MessageID,
		evt.Action,
		evt.ExpenseID,
		evt.UserID,
		evt.Amount,
		evt.Category,
		evt.Timestamp.UTC().Format(time.RFC3339Nano),
		w.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		w.logger.InfoContext(ctx, "duplicate event ignored",
			log.FieldOperation, log.OpConsume,
			log.FieldMessageID, evt.MessageID,
			log.FieldAction, evt.Action)
		return nil
	}

	w.logger.InfoContext(ctx, "audit entry recorded",
		log.FieldOperation, log.OpConsume,
		log.FieldMessageID, evt.MessageID,
		log.FieldAction, evt.Action,
		log.FieldExpenseID, evt.ExpenseID)
	return nil
}

// EntriesForExpense returns the recorded history of one expense, oldest
// first.
func (w *AuditWorker) EntriesForExpense(ctx context.Context, expenseID int64) ([]AuditEntry, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, message_id, action, expense_id, user_id, amount, category, occurred_at, recorded_at
		FROM audit_log
		WHERE expense_id = ?
		ORDER BY id ASC`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			e          AuditEntry
			occurredAt string
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.MessageID, &e.Action, &e.ExpenseID, &e.UserID, &e.Amount, &e.Category, &occurredAt, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
			return nil, fmt.Errorf("parse occurred_at: %w", err)
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// Close closes the audit database.
func (w *AuditWorker) Close() error {
	return w.db.Close()
}
