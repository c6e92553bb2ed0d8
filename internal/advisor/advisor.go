// Package advisor ties aggregation, insight rules and projection together
// behind result types that never fail past the caller.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/projection"
)

// ErrLoadFailed is the message shown for any data layer failure.
const ErrLoadFailed = "failed to load financial data"

// Aggregator builds period totals for a user.
type Aggregator interface {
	Aggregate(ctx context.Context, userID string, period domain.Period) (*domain.Aggregate, error)
}

// Summary echoes the headline totals of the current period.
type Summary struct {
	TotalIncome      json.Number   `json:"totalIncome"`
	TotalExpenses    json.Number   `json:"totalExpenses"`
	TotalInvestments json.Number   `json:"totalInvestments"`
	Period           PeriodSummary `json:"period"`
}

// PeriodSummary is the period rendered as calendar dates.
type PeriodSummary struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// InsightsResult is the outcome of Insights.
type InsightsResult struct {
	OK       bool             `json:"ok"`
	Insights []domain.Insight `json:"insights"`
	Summary  *Summary         `json:"summary,omitempty"`
	Error    string           `json:"error,omitempty"`

	Err error `json:"-"`
}

// ProjectionResult is the outcome of Project.
type ProjectionResult struct {
	OK         bool               `json:"ok"`
	Projection *domain.Projection `json:"projection,omitempty"`
	Error      string             `json:"error,omitempty"`

	Err error `json:"-"`
}

// Report is an exportable snapshot of insights and projection for a period.
type Report struct {
	UserID      string                 `json:"userId"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Summary     Summary                `json:"summary"`
	Insights    []domain.Insight       `json:"insights"`
	Projection  domain.Projection      `json:"projection"`
	ByCategory  map[string]json.Number `json:"byCategory"`
}

// Advisor is safe for concurrent use.
type Advisor struct {
	agg    Aggregator
	engine *insights.Engine
	calc   projection.Calculator
	now    func() time.Time
}

// New creates an Advisor.
func New(agg Aggregator, engine *insights.Engine, calc projection.Calculator) *Advisor {
	return &Advisor{agg: agg, engine: engine, calc: calc, now: time.Now}
}

// Insights aggregates period and the same-length window before it and runs
// the insight rules over both.
func (a *Advisor) Insights(ctx context.Context, userID string, period domain.Period) InsightsResult {
	current, previous, err := a.load(ctx, userID, period)
	if err != nil {
		msg, err := a.publicError(ctx, "Insights", err)
		return InsightsResult{OK: false, Insights: []domain.Insight{}, Error: msg, Err: err}
	}

	summary := summarize(current)
	return InsightsResult{
		OK:       true,
		Insights: a.engine.Generate(current, previous),
		Summary:  &summary,
	}
}

// Project aggregates period and projects its end balance.
func (a *Advisor) Project(ctx context.Context, userID string, period domain.Period) ProjectionResult {
	current, err := a.agg.Aggregate(ctx, userID, period)
	if err != nil {
		msg, err := a.publicError(ctx, "Project", err)
		return ProjectionResult{OK: false, Error: msg, Err: err}
	}

	p := a.calc.FromAggregate(current)
	return ProjectionResult{OK: true, Projection: &p}
}

// Report builds an export snapshot. Unlike Insights and Project it returns
// the raw error for the caller to record.
func (a *Advisor) Report(ctx context.Context, userID string, period domain.Period) (*Report, error) {
	current, previous, err := a.load(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]json.Number, len(current.ByCategory))
	for cat, amount := range current.ByCategory {
		byCategory[string(cat)] = domain.Number(amount)
	}

	return &Report{
		UserID:      userID,
		GeneratedAt: a.now().UTC(),
		Summary:     summarize(current),
		Insights:    a.engine.Generate(current, previous),
		Projection:  a.calc.FromAggregate(current),
		ByCategory:  byCategory,
	}, nil
}

func (a *Advisor) load(ctx context.Context, userID string, period domain.Period) (*domain.Aggregate, *domain.Aggregate, error) {
	current, err := a.agg.Aggregate(ctx, userID, period)
	if err != nil {
		return nil, nil, err
	}
	previous, err := a.agg.Aggregate(ctx, userID, period.Previous())
	if err != nil {
		return nil, nil, err
	}
	return current, previous, nil
}

// publicError decides what the caller may see. Validation and authorization
// messages pass through; anything else is logged and replaced.
func (a *Advisor) publicError(ctx context.Context, op string, err error) (string, error) {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrAuthorization) {
		return err.Error(), err
	}

	log := logger.FromContext(ctx)
	log.Error().Err(err).Str("op", op).Msg("advisor request failed")
	if !errors.Is(err, domain.ErrPersistence) {
		err = domain.PersistenceError(op, err)
	}
	return ErrLoadFailed, err
}

func summarize(agg *domain.Aggregate) Summary {
	return Summary{
		TotalIncome:      domain.Number(agg.IncomeTotal),
		TotalExpenses:    domain.Number(agg.ExpenseTotal),
		TotalInvestments: domain.Number(agg.InvestmentTotal),
		Period: PeriodSummary{
			From: agg.Period.From.Format(time.DateOnly),
			To:   agg.Period.To.Format(time.DateOnly),
		},
	}
}
