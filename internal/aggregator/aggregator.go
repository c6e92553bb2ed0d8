// Package aggregator sums a user's transactions and obligations over a period.
package aggregator

import (
	"context"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// Repository is the read side of the persistence layer. Every method must
// scope its query to userID.
type Repository interface {
	// FindTransactions returns the user's transactions whose timestamp falls in period.
	FindTransactions(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error)

	// FindActiveSubscriptions returns the user's active subscriptions.
	FindActiveSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)

	// FindActiveFixedCosts returns the user's active fixed costs.
	FindActiveFixedCosts(ctx context.Context, userID string) ([]domain.FixedCost, error)
}

// Aggregator builds period aggregates from a Repository.
type Aggregator struct {
	repo Repository
}

// New creates an Aggregator reading from repo.
func New(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Aggregate returns the totals for userID over period. An empty period is not
// an error; it yields an all-zero aggregate.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, period domain.Period) (*domain.Aggregate, error) {
	if err := domain.RequireUser(userID); err != nil {
		return nil, err
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	txs, err := a.repo.FindTransactions(ctx, userID, period)
	if err != nil {
		return nil, domain.PersistenceError("Aggregate: find transactions", err)
	}
	subs, err := a.repo.FindActiveSubscriptions(ctx, userID)
	if err != nil {
		return nil, domain.PersistenceError("Aggregate: find subscriptions", err)
	}
	costs, err := a.repo.FindActiveFixedCosts(ctx, userID)
	if err != nil {
		return nil, domain.PersistenceError("Aggregate: find fixed costs", err)
	}

	log := logger.FromContext(ctx)
	agg := domain.NewAggregate(period)

	for _, tx := range txs {
		if tx.UserID != userID {
			log.Warn().Str("transaction_id", tx.ID).Str("user_id", userID).Msg("Dropping transaction owned by another user")
			continue
		}
		if !period.Contains(tx.OccurredAt) {
			continue
		}
		agg.TransactionCount++

		switch tx.Kind {
		case domain.KindDeposit:
			agg.IncomeTotal = agg.IncomeTotal.Add(tx.Amount)
		case domain.KindInvestment:
			agg.InvestmentTotal = agg.InvestmentTotal.Add(tx.Amount)
		case domain.KindExpense:
			agg.ExpenseTotal = agg.ExpenseTotal.Add(tx.Amount)
			agg.ByCategory[tx.Category] = agg.ByCategory[tx.Category].Add(tx.Amount)
		default:
			log.Warn().Str("transaction_id", tx.ID).Str("kind", string(tx.Kind)).Msg("Skipping transaction with unknown kind")
		}
	}

	for _, s := range subs {
		if s.UserID != userID || !s.Active {
			continue
		}
		if !s.Recurring && !period.Contains(s.NextDueAt) {
			continue
		}
		agg.SubscriptionsTotal = agg.SubscriptionsTotal.Add(s.Amount)
	}

	for _, c := range costs {
		if c.UserID != userID || !c.Active {
			continue
		}
		agg.FixedCostsTotal = agg.FixedCostsTotal.Add(c.MonthlyAmount())
	}

	log.Debug().
		Str("user_id", userID).
		Int("transactions", agg.TransactionCount).
		Str("income", agg.IncomeTotal.String()).
		Str("expenses", agg.ExpenseTotal.String()).
		Msg("Aggregated period")

	return agg, nil
}
