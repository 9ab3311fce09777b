package events

import (
	"testing"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

func TestNewExpenseEvent(t *testing.T) {
	e := core.Expense{
		ID:       7,
		UserID:   "u1",
		Amount:   decimal.RequireFromString("3.50"),
		Category: "Food",
	}
	evt := NewExpenseEvent(ActionCreated, e)

	if evt.MessageID == "" {
		t.Fatal("missing message id")
	}
	if evt.Action != ActionCreated || evt.ExpenseID != 7 || evt.UserID != "u1" {
		t.Fatalf("event fields: %+v", evt)
	}
	if evt.Amount != "3.5" || evt.Category != "Food" {
		t.Fatalf("event fields: %+v", evt)
	}
	if evt.Timestamp.IsZero() {
		t.Fatal("missing timestamp")
	}

	other := NewExpenseEvent(ActionUpdated, e)
	if other.MessageID == evt.MessageID {
		t.Fatal("message ids must be unique")
	}
}

func TestEventJSONRoundTrip(t *testing.T) {
	evt := NewDeleteEvent(42, "u9")

	b, err := evt.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := FromJSON(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.MessageID != evt.MessageID || back.Action != ActionDeleted || back.ExpenseID != 42 || back.UserID != "u9" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	if _, err := FromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}
