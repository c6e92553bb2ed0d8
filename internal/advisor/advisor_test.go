package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/projection"
	"github.com/shopspring/decimal"
)

type stubAggregator struct {
	byFrom map[time.Time]*domain.Aggregate
	err    error
	calls  []domain.Period
}

func (s *stubAggregator) Aggregate(_ context.Context, userID string, period domain.Period) (*domain.Aggregate, error) {
	s.calls = append(s.calls, period)
	if err := domain.RequireUser(userID); err != nil {
		return nil, err
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if agg, ok := s.byFrom[period.From]; ok {
		return agg, nil
	}
	return domain.NewAggregate(period), nil
}

var october = domain.Period{
	From: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC),
}

func newAdvisor(agg Aggregator) *Advisor {
	a := New(agg, insights.NewEngine(insights.DefaultConfig()), projection.Calculator{})
	a.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return a
}

func foodAggregates() *stubAggregator {
	current := domain.NewAggregate(october)
	current.TransactionCount = 12
	current.IncomeTotal = decimal.NewFromInt(3000)
	current.ExpenseTotal = decimal.NewFromInt(842)
	current.InvestmentTotal = decimal.NewFromInt(200)
	current.ByCategory[domain.CategoryFood] = decimal.NewFromInt(842)
	current.FixedCostsTotal = decimal.NewFromInt(500)
	current.SubscriptionsTotal = decimal.NewFromInt(100)

	prevPeriod := october.Previous()
	previous := domain.NewAggregate(prevPeriod)
	previous.TransactionCount = 9
	previous.ByCategory[domain.CategoryFood] = decimal.NewFromInt(600)

	return &stubAggregator{byFrom: map[time.Time]*domain.Aggregate{
		october.From:    current,
		prevPeriod.From: previous,
	}}
}

func TestInsights(t *testing.T) {
	agg := foodAggregates()
	res := newAdvisor(agg).Insights(context.Background(), "user-1", october)

	if !res.OK {
		t.Fatalf("Insights() = %+v", res)
	}
	if len(agg.calls) != 2 || agg.calls[1] != october.Previous() {
		t.Errorf("aggregated periods = %v, want current and previous", agg.calls)
	}
	if len(res.Insights) != 1 || res.Insights[0].ID != "overspend-food" {
		t.Errorf("Insights = %+v", res.Insights)
	}
	if res.Summary == nil || res.Summary.TotalIncome != "3000.00" || res.Summary.TotalExpenses != "842.00" ||
		res.Summary.TotalInvestments != "200.00" {
		t.Errorf("Summary = %+v", res.Summary)
	}
	if res.Summary.Period.From != "2026-10-01" || res.Summary.Period.To != "2026-10-31" {
		t.Errorf("Summary.Period = %+v", res.Summary.Period)
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"totalIncome":3000.00`) || strings.Contains(string(data), `"error"`) {
		t.Errorf("json = %s", data)
	}
}

func TestInsights_Errors(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		period  domain.Period
		repoErr error
		wantMsg string
		wantIs  error
	}{
		{
			name:    "no user",
			period:  october,
			wantMsg: "authorization error: user id is required",
			wantIs:  domain.ErrAuthorization,
		},
		{
			name:   "inverted period",
			userID: "user-1",
			period: domain.Period{From: october.To, To: october.From},
			wantIs: domain.ErrValidation,
		},
		{
			name:    "persistence",
			userID:  "user-1",
			period:  october,
			repoErr: domain.PersistenceError("FindTransactions", errors.New("connection refused")),
			wantMsg: ErrLoadFailed,
			wantIs:  domain.ErrPersistence,
		},
		{
			name:    "unclassified",
			userID:  "user-1",
			period:  october,
			repoErr: fmt.Errorf("boom"),
			wantMsg: ErrLoadFailed,
			wantIs:  domain.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdvisor(&stubAggregator{err: tt.repoErr})

			res := a.Insights(context.Background(), tt.userID, tt.period)
			if res.OK || res.Error == "" {
				t.Fatalf("Insights() = %+v, want failure", res)
			}
			if tt.wantMsg != "" && res.Error != tt.wantMsg {
				t.Errorf("Error = %q, want %q", res.Error, tt.wantMsg)
			}
			if !errors.Is(res.Err, tt.wantIs) {
				t.Errorf("Err = %v, want %v", res.Err, tt.wantIs)
			}
			if strings.Contains(res.Error, "connection refused") {
				t.Error("persistence detail leaked to caller")
			}
			if res.Insights == nil {
				t.Error("Insights should be an empty list, not nil")
			}

			pr := a.Project(context.Background(), tt.userID, tt.period)
			if pr.OK || pr.Projection != nil || !errors.Is(pr.Err, tt.wantIs) {
				t.Errorf("Project() = %+v", pr)
			}
		})
	}
}

func TestProject(t *testing.T) {
	res := newAdvisor(foodAggregates()).Project(context.Background(), "user-1", october)
	if !res.OK || res.Projection == nil {
		t.Fatalf("Project() = %+v", res)
	}

	data, err := json.Marshal(res.Projection)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"saldo_previsto":2400.00,"percent_comprometido":20.00,"sugestao_para_meta":720.00}`
	if string(data) != want {
		t.Errorf("projection json = %s, want %s", data, want)
	}
}

func TestReport(t *testing.T) {
	a := newAdvisor(foodAggregates())

	r, err := a.Report(context.Background(), "user-1", october)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if r.UserID != "user-1" || r.GeneratedAt.IsZero() {
		t.Errorf("Report envelope = %+v", r)
	}
	if r.ByCategory["FOOD"] != "842.00" {
		t.Errorf("ByCategory = %v", r.ByCategory)
	}
	if !r.Projection.ProjectedBalance.Equal(decimal.NewFromInt(2400)) {
		t.Errorf("Projection = %+v", r.Projection)
	}

	_, err = newAdvisor(&stubAggregator{err: errors.New("down")}).Report(context.Background(), "user-1", october)
	if err == nil {
		t.Error("Report() expected error")
	}
}
