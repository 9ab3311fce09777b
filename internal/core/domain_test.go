package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func amt(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad test amount %q: %v", s, err)
	}
	return d
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-01", true},
		{"2024-02-29", true},
		{" 2024-12-31 ", true},
		{"2024-13-01", false},
		{"01/02/2024", false},
		{"", false},
		{"not a date", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseDate(%q): unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseDate(%q): expected error, got %v", tc.in, d)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 2, 15)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-02-15"` {
		t.Fatalf("marshal: got %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"12.34", true},
		{"0.01", true},
		{"1000", true},
		{" 7.50 ", true},
		{"0", false},
		{"-3", false},
		{"-0.01", false},
		{"", false},
		{"abc", false},
		{"12,34", false},
	}
	for _, tc := range cases {
		d, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q): unexpected error %v", tc.in, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseAmount(%q): expected error, got %v", tc.in, d)
		}
		if !IsValidationError(err) {
			t.Fatalf("ParseAmount(%q): expected validation error, got %v", tc.in, err)
		}
	}
}

func TestAmountJSONCanonicalForm(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3.50", `"3.5"`},
		{"10.00", `"10"`},
		{"0.50", `"0.5"`},
		{"12.34", `"12.34"`},
	}
	for _, tc := range cases {
		d, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.in, err)
		}
		b, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("marshal %q: %v", tc.in, err)
		}
		if string(b) != tc.want {
			t.Fatalf("amount %q marshaled as %s, want %s", tc.in, b, tc.want)
		}
	}

	// Spellings with different trailing zeros are the same value.
	a, _ := ParseAmount("3.50")
	b, _ := ParseAmount("3.5")
	if !a.Equal(b) {
		t.Fatalf("3.50 and 3.5 should compare equal, got %v and %v", a, b)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Title:    "Coffee",
		Amount:   amt(t, "3.50"),
		Category: "Food",
		Date:     NewDate(2024, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		e     Expense
		field string
	}{
		{"empty title", Expense{Title: " ", Amount: amt(t, "1"), Category: "c", Date: NewDate(2024, 1, 1)}, "title"},
		{"zero amount", Expense{Title: "a", Category: "c", Date: NewDate(2024, 1, 1)}, "amount"},
		{"negative amount", Expense{Title: "a", Amount: amt(t, "-5"), Category: "c", Date: NewDate(2024, 1, 1)}, "amount"},
		{"empty category", Expense{Title: "a", Amount: amt(t, "1"), Date: NewDate(2024, 1, 1)}, "category"},
		{"zero date", Expense{Title: "a", Amount: amt(t, "1"), Category: "c"}, "date"},
	}
	for _, tc := range cases {
		err := tc.e.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("%s: expected validation error on %q, got %v", tc.name, tc.field, err)
		}
	}
}

func TestExpensePatch(t *testing.T) {
	base := Expense{
		ID:       7,
		UserID:   "u1",
		Title:    "A",
		Amount:   amt(t, "5.00"),
		Category: "Food",
		Date:     NewDate(2024, 1, 1),
	}

	newAmount := amt(t, "7.50")
	patch := ExpensePatch{Amount: &newAmount}
	if err := patch.Validate(); err != nil {
		t.Fatalf("patch validate: %v", err)
	}

	got := patch.Apply(base)
	if !got.Amount.Equal(newAmount) {
		t.Fatalf("amount not applied: %v", got.Amount)
	}
	if got.Title != "A" || got.Category != "Food" || got.Date.String() != "2024-01-01" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.ID != 7 || got.UserID != "u1" {
		t.Fatalf("store-assigned fields changed: %+v", got)
	}

	empty := ExpensePatch{}
	if !empty.IsEmpty() {
		t.Fatal("expected empty patch")
	}
	if err := empty.Validate(); err != nil {
		t.Fatalf("empty patch should validate: %v", err)
	}

	blank := ""
	bad := ExpensePatch{Title: &blank}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for blank title patch")
	}

	neg := amt(t, "-1")
	badAmount := ExpensePatch{Amount: &neg}
	if err := badAmount.Validate(); err == nil {
		t.Fatal("expected error for non-positive amount patch")
	}
}
