// Package projection estimates the end-of-period balance from income and
// committed obligations.
package projection

import (
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultSavingsRate is the share of a positive projected surplus suggested
// as savings.
var DefaultSavingsRate = decimal.RequireFromString("0.30")

// currencyPlaces is the precision used for derived (non-exact) outputs.
const currencyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Calculator projects balances. The zero value uses DefaultSavingsRate.
type Calculator struct {
	// SavingsRate overrides DefaultSavingsRate when set. Zero is a valid rate.
	SavingsRate *decimal.Decimal
}

// NewCalculator returns a Calculator suggesting rate of a positive surplus.
func NewCalculator(rate decimal.Decimal) Calculator {
	return Calculator{SavingsRate: &rate}
}

// Project computes the projection with the default savings rate.
func Project(income, fixedCosts, subscriptions decimal.Decimal) domain.Projection {
	return Calculator{}.Project(income, fixedCosts, subscriptions)
}

// Project computes the projected balance, the share of income committed to
// fixed obligations and a savings suggestion. The balance is exact.
func (c Calculator) Project(income, fixedCosts, subscriptions decimal.Decimal) domain.Projection {
	rate := DefaultSavingsRate
	if c.SavingsRate != nil {
		rate = *c.SavingsRate
	}

	committed := fixedCosts.Add(subscriptions)
	balance := income.Sub(committed)

	percent := decimal.Zero
	if income.IsPositive() {
		percent = committed.Div(income).Mul(hundred).Round(currencyPlaces)
	}

	savings := decimal.Zero
	if balance.IsPositive() {
		savings = balance.Mul(rate).Round(currencyPlaces)
	}

	return domain.Projection{
		ProjectedBalance: balance,
		PercentCommitted: percent,
		SuggestedSavings: savings,
	}
}

// FromAggregate projects using the totals of agg.
func (c Calculator) FromAggregate(agg *domain.Aggregate) domain.Projection {
	return c.Project(agg.IncomeTotal, agg.FixedCostsTotal, agg.SubscriptionsTotal)
}
