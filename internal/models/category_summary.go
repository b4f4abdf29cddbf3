package models

import "github.com/shopspring/decimal"

// CategorySummary maps a category label to the running total of one user's
// ledger entries with that label. It is derived state: it must always equal
// the grouped sum of the user's persisted transactions.
type CategorySummary map[string]decimal.Decimal

// Clone returns an independent copy so callers can hold a summary without
// observing later aggregator updates.
func (s CategorySummary) Clone() CategorySummary {
	out := make(CategorySummary, len(s))
	for category, total := range s {
		out[category] = total
	}
	return out
}

// Add accumulates amount under category, creating it at zero if absent.
func (s CategorySummary) Add(category string, amount decimal.Decimal) {
	s[category] = s[category].Add(amount)
}

// ToNumbers converts the summary to the wire shape consumed by the
// dashboard: plain JSON numbers keyed by category.
func (s CategorySummary) ToNumbers() map[string]float64 {
	out := make(map[string]float64, len(s))
	for category, total := range s {
		out[category] = total.InexactFloat64()
	}
	return out
}
