// Package gateway answers free-text financial questions. Prompts are
// sanitized and bounded, forwarded to an optional completion provider and
// answered by a deterministic keyword fallback whenever the provider is
// missing or fails.
package gateway

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 10 * time.Second

// Metadata keys set on assistant messages.
const (
	MetaProvider  = "provider"
	MetaTruncated = "truncated"
	MetaFallback  = "fallback"
)

// ChatResult is the outcome of Answer. Exactly one of Message and Error is set.
type ChatResult struct {
	OK      bool                `json:"ok"`
	Message *domain.ChatMessage `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`

	// Err keeps the typed error for status mapping.
	Err error `json:"-"`
}

// Gateway holds no per-conversation state and is safe for concurrent use.
type Gateway struct {
	primary  Completer
	fallback Completer
	timeout  time.Duration
	now      func() time.Time
	newID    func() string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithFallback replaces the embedded keyword fallback.
func WithFallback(c Completer) Option {
	return func(g *Gateway) { g.fallback = c }
}

// WithTimeout sets the provider call timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithClock sets the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a Gateway. primary may be nil, in which case every prompt is
// answered by the fallback.
func New(primary Completer, opts ...Option) *Gateway {
	g := &Gateway{
		primary: primary,
		timeout: DefaultTimeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.fallback == nil {
		g.fallback = DefaultTemplateCompleter()
	}
	return g
}

// Answer replies to prompt on behalf of userID. Provider failures are logged
// and answered by the fallback; only authorization and empty prompts fail.
func (g *Gateway) Answer(ctx context.Context, prompt, userID string, history []domain.ChatMessage) ChatResult {
	if err := domain.RequireUser(userID); err != nil {
		return failure(err)
	}

	clean, truncated, err := Sanitize(prompt)
	if err != nil {
		return failure(err)
	}
	bounded := BoundHistory(history)

	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Int("prompt_runes", len([]rune(clean))).
		Bool("truncated", truncated).
		Int("history", len(bounded)).
		Logger()

	text, provider, fellBack := g.dispatch(ctx, clean, bounded)
	if fellBack {
		log.Info().Str("provider", provider).Msg("answered by fallback")
	} else {
		log.Debug().Str("provider", provider).Msg("answered by provider")
	}

	return ChatResult{
		OK: true,
		Message: &domain.ChatMessage{
			ID:        g.newID(),
			Role:      domain.RoleAssistant,
			Content:   text,
			Timestamp: g.now().UTC(),
			Metadata: map[string]string{
				MetaProvider:  provider,
				MetaTruncated: strconv.FormatBool(truncated),
				MetaFallback:  strconv.FormatBool(fellBack),
			},
		},
	}
}

// dispatch asks the primary completer under the gateway timeout and falls
// back on any error, timeout or blank reply.
func (g *Gateway) dispatch(ctx context.Context, prompt string, history []domain.ChatMessage) (string, string, bool) {
	if g.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		text, err := g.primary.Complete(callCtx, prompt, history)
		cancel()

		if err == nil && text != "" {
			return text, g.primary.Name(), false
		}
		if err == nil {
			err = errors.New("empty reply")
		}
		log := logger.FromContext(ctx)
		log.Warn().
			Err(domain.UpstreamError(g.primary.Name(), err)).
			Msg("completion provider failed, using fallback")
	}

	text, err := g.fallback.Complete(ctx, prompt, history)
	if err != nil || text == "" {
		// a custom fallback misbehaved; the embedded rules always answer
		text = DefaultTemplateCompleter().Reply(prompt)
		return text, ProviderTemplate, true
	}
	return text, g.fallback.Name(), true
}

func failure(err error) ChatResult {
	return ChatResult{OK: false, Error: err.Error(), Err: err}
}
