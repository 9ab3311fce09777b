package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"spendtrack/internal/core"
)

// Actions an expense lifecycle event can carry.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ExpenseEvent is published after a successful mutation. It is a compact
// record of what happened, not a full snapshot; consumers needing the
// current row fetch it by id.
type ExpenseEvent struct {
	MessageID string    `json:"message_id"`
	Action    string    `json:"action"`
	ExpenseID int64     `json:"expense_id"`
	UserID    string    `json:"user_id"`
	Amount    string    `json:"amount,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent builds an event for the given action and expense.
func NewExpenseEvent(action string, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		MessageID: uuid.NewString(),
		Action:    action,
		ExpenseID: e.ID,
		UserID:    e.UserID,
		Amount:    e.Amount.String(),
		Category:  e.Category,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeleteEvent builds a deletion event; only the id and owner survive
// the delete, so that is all it carries.
func NewDeleteEvent(id int64, userID string) *ExpenseEvent {
	return &ExpenseEvent{
		MessageID: uuid.NewString(),
		Action:    ActionDeleted,
		ExpenseID: id,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes.
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON parses an event from JSON bytes.
func FromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
