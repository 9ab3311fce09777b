package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Date is a civil calendar date with no time component. The zero value
	// is invalid. Dates marshal to and from ISO 8601 (YYYY-MM-DD) strings.
	Date struct {
		time.Time
	}

	// Expense is a single monetary outlay record owned by a user.
	// ID, UserID and CreatedAt are assigned by the store and are immutable.
	//
	// Amount marshals as a quoted decimal string in its canonical form,
	// which drops trailing zeros: an expense created with "3.50" comes
	// back as "3.5". Equality is value equality, not string equality.
	Expense struct {
		ID        int64           `json:"id"`
		UserID    string          `json:"userId"`
		Title     string          `json:"title"`
		Amount    decimal.Decimal `json:"amount"`
		Category  string          `json:"category"`
		Date      Date            `json:"date"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// ExpensePatch carries a partial update. Nil fields are left untouched.
	ExpensePatch struct {
		Title    *string
		Amount   *decimal.Decimal
		Category *string
		Date     *Date
	}
)

var (
	ErrEmptyTitle    = errors.New("title is required")
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrEmptyCategory = errors.New("category is required")
	ErrInvalidDate   = errors.New("date must be a valid YYYY-MM-DD date")
)

// ValidationError marks an input error on a specific field so the request
// layer can map it to a 400 carrying the offending field path.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidationError reports whether err originates from input validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseDate parses an ISO 8601 civil date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// InMonth reports whether the date falls in the calendar month of t.
// Comparison is in UTC; expense dates carry no zone of their own.
func (d Date) InMonth(t time.Time) bool {
	t = t.UTC()
	return d.Year() == t.Year() && d.Month() == t.Month()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ParseAmount parses a monetary amount from its decimal-string wire form.
// The amount must parse as a base-10 decimal and be strictly positive;
// anything else is a validation error on the "amount" field. The parsed
// value keeps the amount's numeric value but not its spelling, so
// trailing zeros are gone once it is serialized again.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, invalid("amount", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, invalid("amount", ErrInvalidAmount)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, invalid("amount", ErrInvalidAmount)
	}
	return d, nil
}

// Validate checks the client-settable fields of an expense.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if !e.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if strings.TrimSpace(e.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if err := e.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	return nil
}

// Validate checks every supplied field of a patch; nil fields are skipped.
func (p ExpensePatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if p.Amount != nil && !p.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if p.Date != nil && p.Date.IsZero() {
		return invalid("date", ErrInvalidDate)
	}
	return nil
}

// IsEmpty reports whether the patch carries no fields at all.
func (p ExpensePatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Category == nil && p.Date == nil
}

// Apply returns a copy of e with the patch's supplied fields replaced.
// Store-assigned fields are never touched.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	return e
}
