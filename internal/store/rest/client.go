// Package rest implements the expense store against the hosted
// PostgREST-style data service. Every request forwards the caller's
// bearer token, so row-level authorization stays with the service.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
	"spendtrack/internal/store"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// row is the hosted table's wire shape (snake_case columns).
type row struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      string          `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r row) toExpense() (core.Expense, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse remote date %q: %w", r.Date, err)
	}
	return core.Expense{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Amount:    r.Amount,
		Category:  r.Category,
		Date:      d,
		CreatedAt: r.CreatedAt,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, prefer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	if token, ok := auth.TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func remoteError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func decodeRows(resp *http.Response) ([]row, error) {
	var rows []row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode backend response: %w", err)
	}
	return rows, nil
}

func (c *Client) List(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "date.desc")
	if f.HasSearch() {
		q.Set("title", "ilike.*"+strings.TrimSpace(f.Search)+"*")
	}
	if f.HasCategory() {
		q.Set("category", "eq."+f.Category)
	}
	if f.UserID != "" {
		q.Set("user_id", "eq."+f.UserID)
	}

	resp, err := c.do(ctx, http.MethodGet, "/rest/v1/expenses", q, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp)
	}

	rows, err := decodeRows(resp)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(rows))
	for _, r := range rows {
		e, err := r.toExpense()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (core.Expense, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+strconv.FormatInt(id, 10))

	resp, err := c.do(ctx, http.MethodGet, "/rest/v1/expenses", q, nil, "")
	if err != nil {
		return core.Expense{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Expense{}, remoteError(resp)
	}

	rows, err := decodeRows(resp)
	if err != nil {
		return core.Expense{}, err
	}
	if len(rows) == 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return rows[0].toExpense()
}

func (c *Client) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	payload := map[string]any{
		"user_id":  e.UserID,
		"title":    e.Title,
		"amount":   e.Amount.String(),
		"category": e.Category,
		"date":     e.Date.String(),
	}
	resp, err := c.do(ctx, http.MethodPost, "/rest/v1/expenses", nil, payload, "return=representation")
	if err != nil {
		return core.Expense{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return core.Expense{}, remoteError(resp)
	}

	rows, err := decodeRows(resp)
	if err != nil {
		return core.Expense{}, err
	}
	if len(rows) == 0 {
		return core.Expense{}, fmt.Errorf("backend returned no row for insert")
	}
	return rows[0].toExpense()
}

func (c *Client) Update(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	if err := p.Validate(); err != nil {
		return core.Expense{}, err
	}

	updates := map[string]any{}
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Amount != nil {
		updates["amount"] = p.Amount.String()
	}
	if p.Category != nil {
		updates["category"] = *p.Category
	}
	if p.Date != nil {
		updates["date"] = p.Date.String()
	}
	if len(updates) == 0 {
		// Nothing to change; report the current record.
		return c.Get(ctx, id)
	}

	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))
	resp, err := c.do(ctx, http.MethodPatch, "/rest/v1/expenses", q, updates, "return=representation")
	if err != nil {
		return core.Expense{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Expense{}, remoteError(resp)
	}

	rows, err := decodeRows(resp)
	if err != nil {
		return core.Expense{}, err
	}
	if len(rows) == 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return rows[0].toExpense()
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))
	resp, err := c.do(ctx, http.MethodDelete, "/rest/v1/expenses", q, nil, "return=representation")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return remoteError(resp)
	}

	// With return=representation the deleted rows come back; an empty
	// result means the id never existed.
	if resp.StatusCode == http.StatusOK {
		rows, err := decodeRows(resp)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return store.ErrNotFound
		}
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/rest/v1/", nil, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return remoteError(resp)
	}
	return nil
}

func (c *Client) Close() error { return nil }
