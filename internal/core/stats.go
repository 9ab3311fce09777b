package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal is one entry of the per-category breakdown. Value is a
// plain JSON number on the wire, unlike the decimal-string sums of Stats.
type CategoryTotal struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Stats is the aggregate view over a snapshot of expenses.
// TotalBalance and MonthlySpend serialize as decimal strings.
type Stats struct {
	TotalBalance      decimal.Decimal `json:"totalBalance"`
	MonthlySpend      decimal.Decimal `json:"monthlySpend"`
	TopCategory       *string         `json:"topCategory"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
}

// ComputeStats derives summary statistics from a snapshot of expenses.
// It is a pure function: "now" is passed in rather than read from a clock,
// and the current calendar month is evaluated in UTC.
//
// The breakdown lists categories in first-seen scan order, and a tied top
// category resolves to the one encountered first. Both are observable via
// the API and kept stable on purpose.
func ComputeStats(expenses []Expense, now time.Time) Stats {
	total := decimal.Zero
	monthly := decimal.Zero
	sums := make(map[string]decimal.Decimal, len(expenses))
	order := make([]string, 0, len(expenses))

	for _, e := range expenses {
		total = total.Add(e.Amount)
		if e.Date.InMonth(now) {
			monthly = monthly.Add(e.Amount)
		}
		if _, seen := sums[e.Category]; !seen {
			order = append(order, e.Category)
		}
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	breakdown := make([]CategoryTotal, 0, len(order))
	var top *string
	max := decimal.Zero
	for _, name := range order {
		sum := sums[name]
		breakdown = append(breakdown, CategoryTotal{Name: name, Value: sum.InexactFloat64()})
		// Strict comparison: ties keep the earlier category.
		if sum.GreaterThan(max) {
			max = sum
			n := name
			top = &n
		}
	}

	return Stats{
		TotalBalance:      total,
		MonthlySpend:      monthly,
		TopCategory:       top,
		CategoryBreakdown: breakdown,
	}
}
