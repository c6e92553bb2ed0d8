package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Severity ranks how urgently an insight should be surfaced.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// QuickAction is a suggested follow-up the UI can render as a button.
type QuickAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Insight is a short rule-derived observation. Computed per request, never stored.
type Insight struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Detail     string        `json:"detail"`
	Severity   Severity      `json:"severity"`
	Category   *Category     `json:"category,omitempty"`
	Actionable *bool         `json:"actionable,omitempty"`
	Actions    []QuickAction `json:"actions,omitempty"`
}

// Projection is the forward estimate for the end of a period.
type Projection struct {
	ProjectedBalance decimal.Decimal
	PercentCommitted decimal.Decimal
	SuggestedSavings decimal.Decimal
}

// MarshalJSON emits exact decimal values as JSON numbers.
func (p Projection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ProjectedBalance json.Number `json:"saldo_previsto"`
		PercentCommitted json.Number `json:"percent_comprometido"`
		SuggestedSavings json.Number `json:"sugestao_para_meta"`
	}{
		ProjectedBalance: Number(p.ProjectedBalance),
		PercentCommitted: Number(p.PercentCommitted),
		SuggestedSavings: Number(p.SuggestedSavings),
	})
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one turn of a conversation. History is supplied by the caller
// on each request; nothing is persisted here.
type ChatMessage struct {
	ID        string            `json:"id,omitempty"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
