package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the fractional precision of the BigQuery NUMERIC type.
const numericScale = 9

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC, non-negative
	Kind     string   `bigquery:"kind"`     // REQUIRED EXPENSE | DEPOSIT | INVESTMENT
	Category string   `bigquery:"category"` // REQUIRED

	OccurredAt time.Time              `bigquery:"occurred_at"` // REQUIRED TIMESTAMP
	CreatedTS  bigquery.NullTimestamp `bigquery:"created_ts"`  // NULLABLE
}

type SubscriptionRow struct {
	SubscriptionID string `bigquery:"subscription_id"` // REQUIRED
	UserID         string `bigquery:"user_id"`         // REQUIRED
	Name           string `bigquery:"name"`            // REQUIRED

	Amount    *big.Rat               `bigquery:"amount"`      // REQUIRED NUMERIC
	Recurring bool                   `bigquery:"recurring"`   // REQUIRED
	NextDueAt bigquery.NullTimestamp `bigquery:"next_due_at"` // NULLABLE
	Active    bool                   `bigquery:"active"`      // REQUIRED
}

type FixedCostRow struct {
	FixedCostID string `bigquery:"fixed_cost_id"` // REQUIRED
	UserID      string `bigquery:"user_id"`       // REQUIRED
	Name        string `bigquery:"name"`          // NULLABLE

	Amount    *big.Rat `bigquery:"amount"`    // REQUIRED NUMERIC
	Frequency string   `bigquery:"frequency"` // REQUIRED DAILY | WEEKLY | MONTHLY
	Active    bool     `bigquery:"active"`    // REQUIRED
}

// ratToDecimal converts a NUMERIC value. A NULL amount reads as zero.
func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero, fmt.Errorf("ratToDecimal: %w", err)
	}
	return d, nil
}

func (r *TransactionRow) toDomain() (domain.Transaction, error) {
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", r.TransactionID, err)
	}
	kind := domain.Kind(r.Kind)
	if !domain.ValidKind(kind) {
		return domain.Transaction{}, fmt.Errorf("transaction %s: unknown kind %q", r.TransactionID, r.Kind)
	}
	category := domain.Category(r.Category)
	if !domain.ValidCategory(category) {
		category = domain.CategoryOther
	}
	return domain.Transaction{
		ID:         r.TransactionID,
		UserID:     r.UserID,
		Amount:     amount,
		Kind:       kind,
		Category:   category,
		OccurredAt: r.OccurredAt,
	}, nil
}

func (r *SubscriptionRow) toDomain() (domain.Subscription, error) {
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("subscription %s: %w", r.SubscriptionID, err)
	}
	s := domain.Subscription{
		ID:        r.SubscriptionID,
		UserID:    r.UserID,
		Name:      r.Name,
		Amount:    amount,
		Recurring: r.Recurring,
		Active:    r.Active,
	}
	if r.NextDueAt.Valid {
		s.NextDueAt = r.NextDueAt.Timestamp
	}
	return s, nil
}

func (r *FixedCostRow) toDomain() (domain.FixedCost, error) {
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return domain.FixedCost{}, fmt.Errorf("fixed cost %s: %w", r.FixedCostID, err)
	}
	freq := domain.Frequency(r.Frequency)
	if !domain.ValidFrequency(freq) {
		return domain.FixedCost{}, fmt.Errorf("fixed cost %s: unknown frequency %q", r.FixedCostID, r.Frequency)
	}
	return domain.FixedCost{
		ID:        r.FixedCostID,
		UserID:    r.UserID,
		Name:      r.Name,
		Amount:    amount,
		Frequency: freq,
		Active:    r.Active,
	}, nil
}

// NewTransactionRow converts t for insertion.
func NewTransactionRow(t domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Amount:        t.Amount.Rat(),
		Kind:          string(t.Kind),
		Category:      string(t.Category),
		OccurredAt:    t.OccurredAt.UTC(),
		CreatedTS:     bigquery.NullTimestamp{Timestamp: time.Now().UTC(), Valid: true},
	}
}

// NewSubscriptionRow converts s for insertion.
func NewSubscriptionRow(s domain.Subscription) *SubscriptionRow {
	row := &SubscriptionRow{
		SubscriptionID: s.ID,
		UserID:         s.UserID,
		Name:           s.Name,
		Amount:         s.Amount.Rat(),
		Recurring:      s.Recurring,
		Active:         s.Active,
	}
	if !s.NextDueAt.IsZero() {
		row.NextDueAt = bigquery.NullTimestamp{Timestamp: s.NextDueAt.UTC(), Valid: true}
	}
	return row
}

// NewFixedCostRow converts f for insertion.
func NewFixedCostRow(f domain.FixedCost) *FixedCostRow {
	return &FixedCostRow{
		FixedCostID: f.ID,
		UserID:      f.UserID,
		Name:        f.Name,
		Amount:      f.Amount.Rat(),
		Frequency:   string(f.Frequency),
		Active:      f.Active,
	}
}
