// This file implements utilities for parsing and validating HTTP
// request data: path ids, filter query parameters and JSON payloads.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendtrack/internal/core"
)

// maxBodyBytes caps request bodies; expense payloads are tiny.
const maxBodyBytes = 1 << 20

// errBadID reports an id path segment that is not a positive integer.
var errBadID = errors.New("invalid expense id")

// ParseIDFromPath extracts the numeric id from a path like
// /api/expenses/42.
func ParseIDFromPath(path, prefix string) (int64, error) {
	raw := strings.TrimPrefix(path, prefix)
	raw = strings.Trim(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, errBadID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errBadID
	}
	return id, nil
}

// ParseFilter extracts search and category filters from query
// parameters. Absent parameters leave the filter field empty, which
// matches everything.
func ParseFilter(query url.Values) core.Filter {
	return core.Filter{
		Search:   strings.TrimSpace(query.Get("search")),
		Category: strings.TrimSpace(query.Get("category")),
	}
}

// expensePayload is the wire shape of create and update bodies. Every
// field is a pointer so a partial update can tell absent from empty.
type expensePayload struct {
	Title    *string `json:"title"`
	Amount   *string `json:"amount"`
	Category *string `json:"category"`
	Date     *string `json:"date"`
}

// DecodeJSON reads and unmarshals a request body, rejecting unknown
// fields and trailing garbage.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	_, _ = io.Copy(io.Discard, body)
	return nil
}

// ParseCreatePayload decodes a create body into a validated expense.
// The caller stamps UserID before handing it to the store.
func ParseCreatePayload(r *http.Request) (core.Expense, error) {
	var p expensePayload
	if err := DecodeJSON(r, &p); err != nil {
		return core.Expense{}, err
	}

	var e core.Expense
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Category != nil {
		e.Category = strings.TrimSpace(*p.Category)
	}
	if p.Amount != nil {
		amount, err := core.ParseAmount(*p.Amount)
		if err != nil {
			return core.Expense{}, err
		}
		e.Amount = amount
	} else {
		return core.Expense{}, missingField("amount")
	}
	if p.Date != nil {
		date, err := core.ParseDate(*p.Date)
		if err != nil {
			return core.Expense{}, &core.ValidationError{Field: "date", Err: err}
		}
		e.Date = date
	} else {
		return core.Expense{}, missingField("date")
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ParseUpdatePayload decodes an update body into a patch holding only
// the supplied fields.
func ParseUpdatePayload(r *http.Request) (core.ExpensePatch, error) {
	var p expensePayload
	if err := DecodeJSON(r, &p); err != nil {
		return core.ExpensePatch{}, err
	}

	var patch core.ExpensePatch
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		patch.Title = &title
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		patch.Category = &category
	}
	if p.Amount != nil {
		amount, err := core.ParseAmount(*p.Amount)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		patch.Amount = &amount
	}
	if p.Date != nil {
		date, err := core.ParseDate(*p.Date)
		if err != nil {
			return core.ExpensePatch{}, &core.ValidationError{Field: "date", Err: err}
		}
		patch.Date = &date
	}

	if err := patch.Validate(); err != nil {
		return core.ExpensePatch{}, err
	}
	return patch, nil
}

func missingField(field string) error {
	return &core.ValidationError{Field: field, Err: errors.New("is required")}
}
