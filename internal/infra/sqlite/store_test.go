package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/aggregator"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(d int) time.Time {
	return time.Date(2026, 10, d, 12, 0, 0, 0, time.UTC)
}

func october() domain.Period {
	return domain.Period{
		From: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC),
	}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.InsertTransactions(ctx,
		domain.Transaction{ID: "t1", UserID: "alice", Amount: decimal.RequireFromString("3000"), Kind: domain.KindDeposit, Category: domain.CategorySalary, OccurredAt: day(5)},
		domain.Transaction{ID: "t2", UserID: "alice", Amount: decimal.RequireFromString("842.10"), Kind: domain.KindExpense, Category: domain.CategoryFood, OccurredAt: day(10)},
		domain.Transaction{ID: "t3", UserID: "alice", Amount: decimal.RequireFromString("99.90"), Kind: domain.KindExpense, Category: domain.CategoryFood, OccurredAt: time.Date(2026, 9, 30, 23, 0, 0, 0, time.UTC)},
		domain.Transaction{ID: "t4", UserID: "bob", Amount: decimal.RequireFromString("5000"), Kind: domain.KindExpense, Category: domain.CategoryFood, OccurredAt: day(10)},
	))
	require.NoError(t, s.InsertSubscriptions(ctx,
		domain.Subscription{ID: "s1", UserID: "alice", Name: "Streaming", Amount: decimal.RequireFromString("39.90"), Recurring: true, NextDueAt: day(20), Active: true},
		domain.Subscription{ID: "s2", UserID: "alice", Name: "Old", Amount: decimal.RequireFromString("10"), Recurring: true, Active: false},
		domain.Subscription{ID: "s3", UserID: "bob", Name: "Gym", Amount: decimal.RequireFromString("120"), Recurring: true, Active: true},
	))
	require.NoError(t, s.InsertFixedCosts(ctx,
		domain.FixedCost{ID: "f1", UserID: "alice", Name: "Aluguel", Amount: decimal.RequireFromString("1500"), Frequency: domain.FrequencyMonthly, Active: true},
		domain.FixedCost{ID: "f2", UserID: "bob", Name: "Carro", Amount: decimal.RequireFromString("900"), Frequency: domain.FrequencyMonthly, Active: true},
	))
}

func TestStore_FindTransactions(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	got, err := s.FindTransactions(context.Background(), "alice", october())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].ID)
	assert.Equal(t, "t2", got[1].ID)
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("842.10")))
	assert.Equal(t, domain.KindExpense, got[1].Kind)
	assert.True(t, got[1].OccurredAt.Equal(day(10)))

	for _, tx := range got {
		assert.Equal(t, "alice", tx.UserID)
	}
}

func TestStore_InclusiveBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	instant := day(15)
	require.NoError(t, s.InsertTransactions(ctx,
		domain.Transaction{ID: "edge", UserID: "alice", Amount: decimal.NewFromInt(1), Kind: domain.KindExpense, Category: domain.CategoryOther, OccurredAt: instant},
	))

	got, err := s.FindTransactions(ctx, "alice", domain.Period{From: instant, To: instant})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.FindTransactions(ctx, "alice", domain.Period{From: instant.Add(time.Nanosecond), To: day(20)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Obligations(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	subs, err := s.FindActiveSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Streaming", subs[0].Name)
	assert.True(t, subs[0].Recurring)
	assert.True(t, subs[0].NextDueAt.Equal(day(20)))

	costs, err := s.FindActiveFixedCosts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, costs, 1)
	assert.Equal(t, domain.FrequencyMonthly, costs[0].Frequency)

	none, err := s.FindActiveFixedCosts(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_InsertRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.InsertTransactions(ctx,
		domain.Transaction{ID: "ok", UserID: "alice", Amount: decimal.NewFromInt(1), Kind: domain.KindExpense, Category: domain.CategoryOther, OccurredAt: day(1)},
		domain.Transaction{ID: "bad", UserID: "alice", Amount: decimal.NewFromInt(1), Kind: "REFUND", Category: domain.CategoryOther, OccurredAt: day(1)},
	)
	require.Error(t, err)

	got, err := s.FindTransactions(ctx, "alice", october())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_WithAggregator(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	agg, err := aggregator.New(s).Aggregate(context.Background(), "alice", october())
	require.NoError(t, err)

	assert.Equal(t, 2, agg.TransactionCount)
	assert.True(t, agg.IncomeTotal.Equal(decimal.NewFromInt(3000)))
	assert.True(t, agg.ExpenseTotal.Equal(decimal.RequireFromString("842.10")))
	assert.True(t, agg.ByCategory[domain.CategoryFood].Equal(decimal.RequireFromString("842.10")))
	assert.True(t, agg.FixedCostsTotal.Equal(decimal.NewFromInt(1500)))
	assert.True(t, agg.SubscriptionsTotal.Equal(decimal.RequireFromString("39.90")))
}
