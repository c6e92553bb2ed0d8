package gateway

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"github.com/dvloznov/finance-insights/internal/domain"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// ProviderTemplate names the keyword fallback in message metadata.
const ProviderTemplate = "template"

// KeywordRule maps any of its keywords to a canned reply.
type KeywordRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

// Rules is the keyword rule set of a TemplateCompleter.
type Rules struct {
	Rules   []KeywordRule `yaml:"rules"`
	Default string        `yaml:"default"`
}

// ParseRules decodes and validates a YAML rule set.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("ParseRules: unmarshal: %w", err)
	}
	if strings.TrimSpace(r.Default) == "" {
		return Rules{}, fmt.Errorf("ParseRules: default reply is required")
	}
	for i, rule := range r.Rules {
		if len(rule.Keywords) == 0 {
			return Rules{}, fmt.Errorf("ParseRules: rule %d (%s) has no keywords", i, rule.Name)
		}
		if strings.TrimSpace(rule.Reply) == "" {
			return Rules{}, fmt.Errorf("ParseRules: rule %d (%s) has no reply", i, rule.Name)
		}
	}
	return r, nil
}

// LoadEmbeddedRules returns the built-in Portuguese rule set.
func LoadEmbeddedRules() (Rules, error) {
	return ParseRules(fallbackYAML)
}

// TemplateCompleter answers from keyword rules. It never fails.
type TemplateCompleter struct {
	rules    []KeywordRule
	keywords []map[string]struct{}
	fallback string
}

// NewTemplateCompleter indexes rules for matching.
func NewTemplateCompleter(rules Rules) *TemplateCompleter {
	t := &TemplateCompleter{
		rules:    rules.Rules,
		keywords: make([]map[string]struct{}, len(rules.Rules)),
		fallback: rules.Default,
	}
	for i, rule := range rules.Rules {
		set := make(map[string]struct{}, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			set[fold(kw)] = struct{}{}
		}
		t.keywords[i] = set
	}
	return t
}

// DefaultTemplateCompleter builds a TemplateCompleter from the embedded rules.
// It panics if the embedded file is malformed.
func DefaultTemplateCompleter() *TemplateCompleter {
	rules, err := LoadEmbeddedRules()
	if err != nil {
		panic(err)
	}
	return NewTemplateCompleter(rules)
}

// Name implements Completer.
func (t *TemplateCompleter) Name() string { return ProviderTemplate }

// Complete implements Completer. History is ignored.
func (t *TemplateCompleter) Complete(_ context.Context, prompt string, _ []domain.ChatMessage) (string, error) {
	return t.Reply(prompt), nil
}

// Reply returns the reply of the first rule with a keyword in prompt, or the
// default reply.
func (t *TemplateCompleter) Reply(prompt string) string {
	words := strings.FieldsFunc(fold(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, rule := range t.rules {
		for _, w := range words {
			if _, ok := t.keywords[i][w]; ok {
				return rule.Reply
			}
		}
	}
	return t.fallback
}

// fold lowercases s and strips diacritics so "Poupança" matches "poupanca".
func fold(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
