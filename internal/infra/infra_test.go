package infra

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/aggregator"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/projection"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readSeed(t *testing.T) *Dataset {
	t.Helper()
	f, err := os.Open("testdata/seed.json")
	require.NoError(t, err)
	defer f.Close()

	ds, err := ReadDataset(f)
	require.NoError(t, err)
	return ds
}

func TestReadDataset(t *testing.T) {
	ds := readSeed(t)

	assert.Len(t, ds.Transactions, 5)
	assert.Len(t, ds.Subscriptions, 1)
	assert.Len(t, ds.FixedCosts, 1)
	assert.True(t, ds.Transactions[3].Amount.Equal(decimal.NewFromInt(842)))
	assert.Equal(t, domain.FrequencyMonthly, ds.FixedCosts[0].Frequency)
}

func TestReadDataset_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"transactions": [`},
		{"unknown field", `{"accounts": []}`},
		{"missing user", `{"transactions": [{"id": "t", "amount": "1", "kind": "EXPENSE", "category": "FOOD", "occurred_at": "2026-10-01T00:00:00Z"}]}`},
		{"negative amount", `{"transactions": [{"id": "t", "user_id": "u", "amount": "-1", "kind": "EXPENSE", "category": "FOOD", "occurred_at": "2026-10-01T00:00:00Z"}]}`},
		{"unknown kind", `{"transactions": [{"id": "t", "user_id": "u", "amount": "1", "kind": "REFUND", "category": "FOOD", "occurred_at": "2026-10-01T00:00:00Z"}]}`},
		{"unknown category", `{"transactions": [{"id": "t", "user_id": "u", "amount": "1", "kind": "EXPENSE", "category": "PETS", "occurred_at": "2026-10-01T00:00:00Z"}]}`},
		{"no timestamp", `{"transactions": [{"id": "t", "user_id": "u", "amount": "1", "kind": "EXPENSE", "category": "FOOD"}]}`},
		{"unknown frequency", `{"fixed_costs": [{"id": "f", "user_id": "u", "amount": "1", "frequency": "YEARLY"}]}`},
		{"subscription without owner", `{"subscriptions": [{"id": "s", "amount": "1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDataset(strings.NewReader(tt.json))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation), "error %v is not a validation error", err)
		})
	}
}

func TestOpen_SQLiteSeedAndAggregate(t *testing.T) {
	ctx := context.Background()
	backend, err := Open(ctx, &config.Config{StoreBackend: config.StoreSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer backend.Close()

	assert.Equal(t, config.StoreSQLite, backend.Name)
	require.NoError(t, backend.Seed(ctx, readSeed(t)))

	october := domain.Period{
		From: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
	}
	agg, err := aggregator.New(backend.Repository).Aggregate(ctx, "demo", october)
	require.NoError(t, err)

	assert.Equal(t, 3, agg.TransactionCount)
	assert.True(t, agg.IncomeTotal.Equal(decimal.NewFromInt(3000)))
	assert.True(t, agg.InvestmentTotal.Equal(decimal.NewFromInt(250)))

	p := projection.Calculator{}.FromAggregate(agg)
	assert.True(t, p.ProjectedBalance.Equal(decimal.NewFromInt(2400)), "balance %s", p.ProjectedBalance)

	// ids are primary keys
	err = backend.Seed(ctx, readSeed(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistence))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreBackend: "mongo"})
	assert.Error(t, err)
}
