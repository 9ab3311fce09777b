package core

import "strings"

// CategoryAll is the sentinel category value meaning "no category filter".
const CategoryAll = "all"

// Filter restricts an expense listing. The zero value matches everything.
type Filter struct {
	// Search matches as a case-insensitive substring of the title.
	// An empty string means no search restriction.
	Search string

	// Category matches exactly (case-sensitive). Empty or CategoryAll
	// means no category restriction.
	Category string

	// UserID, when set, restricts rows to a single owner. It is only
	// populated when tenant scoping is enabled.
	UserID string
}

// HasSearch reports whether a search restriction applies.
func (f Filter) HasSearch() bool {
	return strings.TrimSpace(f.Search) != ""
}

// HasCategory reports whether a category restriction applies.
func (f Filter) HasCategory() bool {
	return f.Category != "" && f.Category != CategoryAll
}

// Matches reports whether e satisfies every restriction of the filter.
func (f Filter) Matches(e Expense) bool {
	if f.HasSearch() {
		if !strings.Contains(strings.ToLower(e.Title), strings.ToLower(strings.TrimSpace(f.Search))) {
			return false
		}
	}
	if f.HasCategory() && e.Category != f.Category {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	return true
}
