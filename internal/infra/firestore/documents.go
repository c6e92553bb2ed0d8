package firestore

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// Amounts are stored as decimal strings so values round-trip exactly.

// Transaction is the Firestore document for a transaction.
type Transaction struct {
	ID         string    `firestore:"id"`
	UserID     string    `firestore:"userId"`
	Amount     string    `firestore:"amount"`
	Kind       string    `firestore:"kind"`
	Category   string    `firestore:"category"`
	OccurredAt time.Time `firestore:"occurredAt"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

// Subscription is the Firestore document for a subscription.
type Subscription struct {
	ID        string     `firestore:"id"`
	UserID    string     `firestore:"userId"`
	Name      string     `firestore:"name"`
	Amount    string     `firestore:"amount"`
	Recurring bool       `firestore:"recurring"`
	NextDueAt *time.Time `firestore:"nextDueAt,omitempty"`
	Active    bool       `firestore:"active"`
}

// FixedCost is the Firestore document for a fixed cost.
type FixedCost struct {
	ID        string `firestore:"id"`
	UserID    string `firestore:"userId"`
	Name      string `firestore:"name"`
	Amount    string `firestore:"amount"`
	Frequency string `firestore:"frequency"`
	Active    bool   `firestore:"active"`
}

func parseAmount(id, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("document %s: invalid amount %q: %w", id, s, err)
	}
	return d, nil
}

func (t Transaction) toDomain() (domain.Transaction, error) {
	amount, err := parseAmount(t.ID, t.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	kind := domain.Kind(t.Kind)
	if !domain.ValidKind(kind) {
		return domain.Transaction{}, fmt.Errorf("document %s: unknown kind %q", t.ID, t.Kind)
	}
	category := domain.Category(t.Category)
	if !domain.ValidCategory(category) {
		category = domain.CategoryOther
	}
	return domain.Transaction{
		ID:         t.ID,
		UserID:     t.UserID,
		Amount:     amount,
		Kind:       kind,
		Category:   category,
		OccurredAt: t.OccurredAt,
	}, nil
}

func newTransaction(t domain.Transaction) Transaction {
	return Transaction{
		ID:         t.ID,
		UserID:     t.UserID,
		Amount:     t.Amount.String(),
		Kind:       string(t.Kind),
		Category:   string(t.Category),
		OccurredAt: t.OccurredAt.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
}

func (s Subscription) toDomain() (domain.Subscription, error) {
	amount, err := parseAmount(s.ID, s.Amount)
	if err != nil {
		return domain.Subscription{}, err
	}
	out := domain.Subscription{
		ID:        s.ID,
		UserID:    s.UserID,
		Name:      s.Name,
		Amount:    amount,
		Recurring: s.Recurring,
		Active:    s.Active,
	}
	if s.NextDueAt != nil {
		out.NextDueAt = *s.NextDueAt
	}
	return out, nil
}

func newSubscription(s domain.Subscription) Subscription {
	doc := Subscription{
		ID:        s.ID,
		UserID:    s.UserID,
		Name:      s.Name,
		Amount:    s.Amount.String(),
		Recurring: s.Recurring,
		Active:    s.Active,
	}
	if !s.NextDueAt.IsZero() {
		due := s.NextDueAt.UTC()
		doc.NextDueAt = &due
	}
	return doc
}

func (f FixedCost) toDomain() (domain.FixedCost, error) {
	amount, err := parseAmount(f.ID, f.Amount)
	if err != nil {
		return domain.FixedCost{}, err
	}
	freq := domain.Frequency(f.Frequency)
	if !domain.ValidFrequency(freq) {
		return domain.FixedCost{}, fmt.Errorf("document %s: unknown frequency %q", f.ID, f.Frequency)
	}
	return domain.FixedCost{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Amount:    amount,
		Frequency: freq,
		Active:    f.Active,
	}, nil
}

func newFixedCost(f domain.FixedCost) FixedCost {
	return FixedCost{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Amount:    f.Amount.String(),
		Frequency: string(f.Frequency),
		Active:    f.Active,
	}
}
