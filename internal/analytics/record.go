package analytics

import "math"

// Category filter and grouping sentinels.
const (
	AllCategories = "all"
	Uncategorized = "uncategorized"
)

// Record is one expense as the engine sees it. Date is a local calendar day
// "YYYY-MM-DD"; Amount is in whatever unit the caller uses.
type Record struct {
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	CategoryID string  `json:"categoryId,omitempty"`
}

// validAmount reports whether a record contributes money to totals.
func validAmount(a float64) bool {
	return a > 0 && !math.IsInf(a, 0) && !math.IsNaN(a)
}

// categoryOf normalizes missing categories to Uncategorized.
func categoryOf(r Record) string {
	if r.CategoryID == "" {
		return Uncategorized
	}
	return r.CategoryID
}

// matchesCategory applies the category filter; "" and "all" match anything.
func matchesCategory(r Record, categoryID string) bool {
	if categoryID == "" || categoryID == AllCategories {
		return true
	}
	return categoryOf(r) == categoryID
}

// pctChange returns the percentage change from prev to cur, nil when prev is
// zero.
func pctChange(cur, prev float64) *float64 {
	if prev == 0 {
		return nil
	}
	v := (cur - prev) / prev * 100
	return &v
}
