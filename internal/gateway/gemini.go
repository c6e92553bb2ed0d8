package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter answers through the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a Gemini client authenticated with apiKey.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiCompleter: create genai client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model}, nil
}

// Name implements Completer.
func (g *GeminiCompleter) Name() string { return ProviderGemini }

// Complete implements Completer.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string, history []domain.ChatMessage) (string, error) {
	contents := geminiContents(prompt, history)

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Complete: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("Complete: empty response from model")
	}
	return text, nil
}

// geminiContents maps history and the new prompt to Gemini turns. Gemini
// names the assistant role "model".
func geminiContents(prompt string, history []domain.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	})
}
