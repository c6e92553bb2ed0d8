package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Completer produces an assistant reply for a sanitized prompt and its
// bounded history.
type Completer interface {
	Complete(ctx context.Context, prompt string, history []domain.ChatMessage) (string, error)
	Name() string
}

// Provider names accepted by NewCompleter.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

// ProviderConfig selects and configures the primary completer.
type ProviderConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OllamaURL    string
	OllamaModel  string
	Timeout      time.Duration
}

// NewCompleter builds the primary completer for cfg. A provider without its
// credential, or ProviderNone, yields nil so the gateway answers with its
// fallback only.
func NewCompleter(ctx context.Context, cfg ProviderConfig) (Completer, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		g, err := NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOllama:
		if cfg.OllamaURL == "" {
			return nil, nil
		}
		return NewOllamaCompleter(cfg.OllamaURL, cfg.OllamaModel, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("NewCompleter: unknown provider %q", cfg.Provider)
	}
}
