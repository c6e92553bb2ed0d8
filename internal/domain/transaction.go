package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind carries the sign of a transaction. Amounts themselves are never negative.
type Kind string

const (
	KindExpense    Kind = "EXPENSE"
	KindDeposit    Kind = "DEPOSIT"
	KindInvestment Kind = "INVESTMENT"
)

// Category is the fixed transaction taxonomy shared with the web app.
type Category string

const (
	CategoryHousing        Category = "HOUSING"
	CategoryTransportation Category = "TRANSPORTATION"
	CategoryFood           Category = "FOOD"
	CategoryEntertainment  Category = "ENTERTAINMENT"
	CategoryHealth         Category = "HEALTH"
	CategoryUtility        Category = "UTILITY"
	CategorySalary         Category = "SALARY"
	CategoryEducation      Category = "EDUCATION"
	CategoryOther          Category = "OTHER"
)

// Categories lists every category in display order. Rule evaluation iterates
// categories in this order so output is deterministic.
var Categories = []Category{
	CategoryHousing,
	CategoryTransportation,
	CategoryFood,
	CategoryEntertainment,
	CategoryHealth,
	CategoryUtility,
	CategorySalary,
	CategoryEducation,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryHousing:        "Moradia",
	CategoryTransportation: "Transporte",
	CategoryFood:           "Alimentação",
	CategoryEntertainment:  "Entretenimento",
	CategoryHealth:         "Saúde",
	CategoryUtility:        "Utilidades",
	CategorySalary:         "Salário",
	CategoryEducation:      "Educação",
	CategoryOther:          "Outros",
}

// Label returns the user-facing name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ValidCategory reports whether c belongs to the taxonomy.
func ValidCategory(c Category) bool {
	_, ok := categoryLabels[c]
	return ok
}

// ValidKind reports whether k is one of the known transaction kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindExpense, KindDeposit, KindInvestment:
		return true
	}
	return false
}

// Transaction is a single user transaction as read from the store.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Kind       Kind            `json:"kind"`
	Category   Category        `json:"category"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Subscription is a recurring (or one-off) charge the user signed up for.
type Subscription struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Recurring bool            `json:"recurring"`
	NextDueAt time.Time       `json:"next_due_at"`
	Active    bool            `json:"active"`
}

// Frequency is how often a fixed cost is charged.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// ValidFrequency reports whether f is one of the known charge frequencies.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// FixedCost is an obligation that does not depend on transaction volume.
type FixedCost struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency Frequency       `json:"frequency"`
	Active    bool            `json:"active"`
}

var (
	daysPerMonth  = decimal.NewFromInt(30)
	weeksPerMonth = decimal.NewFromInt(4)
)

// MonthlyAmount normalizes the cost to a monthly figure.
func (f FixedCost) MonthlyAmount() decimal.Decimal {
	switch f.Frequency {
	case FrequencyDaily:
		return f.Amount.Mul(daysPerMonth)
	case FrequencyWeekly:
		return f.Amount.Mul(weeksPerMonth)
	default:
		return f.Amount
	}
}
