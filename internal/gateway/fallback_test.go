package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedRules(t *testing.T) {
	rules, err := LoadEmbeddedRules()
	require.NoError(t, err)
	assert.NotEmpty(t, rules.Default)

	names := make([]string, 0, len(rules.Rules))
	for _, r := range rules.Rules {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"spending", "savings", "subscriptions", "investments", "balance"}, names)
}

func TestTemplateCompleter_Reply(t *testing.T) {
	rules, err := LoadEmbeddedRules()
	require.NoError(t, err)
	tc := NewTemplateCompleter(rules)

	byName := make(map[string]string)
	for _, r := range rules.Rules {
		byName[r.Name] = r.Reply
	}

	tests := []struct {
		prompt string
		want   string
	}{
		{"Quanto eu gastei esse mês?", byName["spending"]},
		{"GASTOS com mercado", byName["spending"]},
		{"quero economizar", byName["savings"]},
		{"Minha poupança está baixa", byName["savings"]},
		{"cancelar assinatura", byName["subscriptions"]},
		{"onde investir?", byName["investments"]},
		{"Aplicação em CDB", byName["investments"]},
		{"qual meu saldo", byName["balance"]},
		{"olá", rules.Default},
		{"gastronomia", rules.Default},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, tc.Reply(tt.prompt))
		})
	}
}

func TestTemplateCompleter_FirstRuleWins(t *testing.T) {
	tc := DefaultTemplateCompleter()
	spending := tc.Reply("gastei")
	assert.Equal(t, spending, tc.Reply("gastei demais, quero poupar e ver meu saldo"))
}

func TestTemplateCompleter_NeverFails(t *testing.T) {
	tc := DefaultTemplateCompleter()
	text, err := tc.Complete(context.Background(), "qualquer coisa", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, ProviderTemplate, tc.Name())
}

func TestParseRules_Invalid(t *testing.T) {
	tests := map[string]string{
		"no default":  "rules: []\n",
		"no keywords": "default: oi\nrules:\n  - name: x\n    reply: y\n",
		"no reply":    "default: oi\nrules:\n  - name: x\n    keywords: [a]\n",
		"bad yaml":    "rules: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRules([]byte(data))
			assert.Error(t, err)
		})
	}
}
