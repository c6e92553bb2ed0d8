// Package insights turns period aggregates into a short, ordered list of
// severity-tagged observations.
package insights

import (
	"fmt"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// Stable identifiers for well-known insights.
const (
	IDNoData          = "no-data"
	IDHighCommitment  = "high-commitment"
	IDOnTrack         = "on-track"
	idOverspendPrefix = "overspend-"
)

// Quick action identifiers.
const (
	ActionCreateLimit    = "create_limit"
	ActionReviewExpenses = "review_expenses"
	ActionReviewBudget   = "review_budget"
)

var hundred = decimal.NewFromInt(100)

// Engine evaluates the insight rules. It holds no state besides its
// thresholds and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with cfg. Use DefaultConfig for the built-in heuristics.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Generate returns insights for current, comparing against previous when it
// is not nil. Insights come back in rule order, not sorted by severity.
func (e *Engine) Generate(current, previous *domain.Aggregate) []domain.Insight {
	if current == nil || current.TransactionCount == 0 {
		return []domain.Insight{noData(current)}
	}

	var out []domain.Insight
	out = append(out, e.overspend(current, previous)...)
	if in, ok := e.highCommitment(current); ok {
		out = append(out, in)
	}
	if len(out) == 0 {
		out = append(out, onTrack())
	}
	return out
}

func noData(current *domain.Aggregate) domain.Insight {
	detail := "Não encontramos movimentações no período selecionado. Registre receitas e despesas para receber análises."
	if current != nil {
		detail = fmt.Sprintf("Não encontramos movimentações entre %s e %s. Registre receitas e despesas para receber análises.",
			current.Period.From.Format("02/01/2006"), current.Period.To.Format("02/01/2006"))
	}
	return domain.Insight{
		ID:       IDNoData,
		Title:    "Sem movimentações no período",
		Detail:   detail,
		Severity: domain.SeverityLow,
	}
}

// overspend compares category spending against the previous period.
func (e *Engine) overspend(current, previous *domain.Aggregate) []domain.Insight {
	if previous == nil {
		return nil
	}

	var out []domain.Insight
	for _, cat := range domain.Categories {
		cur, ok := current.ByCategory[cat]
		if !ok {
			continue
		}
		prev, ok := previous.ByCategory[cat]
		if !ok || !prev.IsPositive() {
			continue
		}

		delta := cur.Sub(prev).Div(prev).Mul(hundred)
		var severity domain.Severity
		switch {
		case delta.GreaterThan(e.cfg.highPct()):
			severity = domain.SeverityHigh
		case delta.GreaterThan(e.cfg.mediumPct()):
			severity = domain.SeverityMedium
		default:
			continue
		}

		category := cat
		out = append(out, domain.Insight{
			ID:    idOverspendPrefix + strings.ToLower(string(cat)),
			Title: fmt.Sprintf("Gastos com %s subiram %s", cat.Label(), formatPercent(delta)),
			Detail: fmt.Sprintf("Você gastou R$ %s com %s neste período, contra R$ %s no período anterior.",
				formatMoney(cur), cat.Label(), formatMoney(prev)),
			Severity:   severity,
			Category:   &category,
			Actionable: boolPtr(true),
			Actions: []domain.QuickAction{
				{ID: ActionCreateLimit, Label: "Criar limite"},
				{ID: ActionReviewExpenses, Label: "Revisar despesas"},
			},
		})
	}
	return out
}

// highCommitment flags fixed obligations above the configured share of income.
func (e *Engine) highCommitment(current *domain.Aggregate) (domain.Insight, bool) {
	committed := current.Committed()
	if !committed.IsPositive() {
		return domain.Insight{}, false
	}
	limit := current.IncomeTotal.Mul(e.cfg.ratio())
	if !committed.GreaterThan(limit) {
		return domain.Insight{}, false
	}

	detail := fmt.Sprintf("Seus compromissos fixos somam R$ %s e não há receitas registradas no período.", formatMoney(committed))
	if current.IncomeTotal.IsPositive() {
		pct := committed.Div(current.IncomeTotal).Mul(hundred)
		detail = fmt.Sprintf("Seus compromissos fixos somam R$ %s, %s da sua renda de R$ %s.",
			formatMoney(committed), formatPercent(pct), formatMoney(current.IncomeTotal))
	}

	return domain.Insight{
		ID:         IDHighCommitment,
		Title:      "Renda muito comprometida",
		Detail:     detail + " Considere revisar seu orçamento.",
		Severity:   domain.SeverityHigh,
		Actionable: boolPtr(true),
		Actions: []domain.QuickAction{
			{ID: ActionReviewBudget, Label: "Revisar orçamento"},
		},
	}, true
}

func onTrack() domain.Insight {
	return domain.Insight{
		ID:       IDOnTrack,
		Title:    "Finanças em dia",
		Detail:   "Nenhum alerta neste período. Continue acompanhando seus gastos!",
		Severity: domain.SeverityLow,
	}
}

func formatPercent(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(1), ".", ",", 1) + "%"
}

func formatMoney(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func boolPtr(b bool) *bool {
	return &b
}
