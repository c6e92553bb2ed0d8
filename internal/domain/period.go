package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a date window. Both bounds are inclusive; From == To is a valid
// single-instant window.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Validate rejects windows whose end precedes their start.
func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return ValidationError("period bounds are required")
	}
	if p.To.Before(p.From) {
		return ValidationError("period end %s is before start %s",
			p.To.Format(time.RFC3339), p.From.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && !t.After(p.To)
}

// Previous returns the window of the same length that ends right before p starts.
func (p Period) Previous() Period {
	length := p.To.Sub(p.From)
	to := p.From.Add(-time.Nanosecond)
	return Period{From: to.Add(-length), To: to}
}

// Aggregate holds per-user totals for one period.
type Aggregate struct {
	Period           Period
	TransactionCount int

	IncomeTotal     decimal.Decimal
	ExpenseTotal    decimal.Decimal
	InvestmentTotal decimal.Decimal

	// ByCategory is the spending breakdown (EXPENSE transactions only).
	ByCategory map[Category]decimal.Decimal

	FixedCostsTotal    decimal.Decimal
	SubscriptionsTotal decimal.Decimal
}

// NewAggregate returns an all-zero aggregate for the period.
func NewAggregate(p Period) *Aggregate {
	return &Aggregate{
		Period:     p,
		ByCategory: make(map[Category]decimal.Decimal),
	}
}

// Committed is the total of fixed obligations for the period.
func (a *Aggregate) Committed() decimal.Decimal {
	return a.FixedCostsTotal.Add(a.SubscriptionsTotal)
}

// Number renders a monetary value as a JSON number with currency precision.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
