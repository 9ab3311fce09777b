package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"spendtrack/internal/core"
)

func TestParseIDFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    int64
		wantErr bool
	}{
		{"/api/expenses/42", 42, false},
		{"/api/expenses/42/", 42, false},
		{"/api/expenses/", 0, true},
		{"/api/expenses/abc", 0, true},
		{"/api/expenses/0", 0, true},
		{"/api/expenses/-5", 0, true},
		{"/api/expenses/1/history", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseIDFromPath(tt.path, expenseIDPrefix)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: id %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	f := ParseFilter(url.Values{"search": {"  coffee "}, "category": {"Food"}})
	if f.Search != "coffee" || f.Category != "Food" {
		t.Fatalf("filter: %+v", f)
	}

	f = ParseFilter(url.Values{})
	if f.HasSearch() || f.HasCategory() {
		t.Fatalf("empty query should produce an open filter: %+v", f)
	}
}

func TestParseUpdatePayloadPartial(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/expenses/1",
		strings.NewReader(`{"amount":"7.25"}`))

	patch, err := ParseUpdatePayload(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if patch.Amount == nil || patch.Title != nil || patch.Category != nil || patch.Date != nil {
		t.Fatalf("patch: %+v", patch)
	}
	if patch.Amount.String() != "7.25" {
		t.Fatalf("amount %s", patch.Amount)
	}
}

func TestParseCreatePayloadRequiresAmountAndDate(t *testing.T) {
	for _, body := range []string{
		`{"title":"Coffee","category":"Food","date":"2025-06-01"}`,
		`{"title":"Coffee","amount":"3.50","category":"Food"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body))
		_, err := ParseCreatePayload(req)
		if !core.IsValidationError(err) {
			t.Fatalf("body %s: got %v, want validation error", body, err)
		}
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader(`{"title":"Coffee","amount":"3.50","category":"Food","date":"2025-06-01","extra":true}`))
	if _, err := ParseCreatePayload(req); err == nil {
		t.Fatal("unknown field should be rejected")
	}
}
