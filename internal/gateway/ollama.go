package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// DefaultOllamaModel is used when no model is configured.
const DefaultOllamaModel = "llama3.1"

// OllamaCompleter answers through a local Ollama server.
type OllamaCompleter struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// NewOllamaCompleter creates a client for the server at endpoint.
func NewOllamaCompleter(endpoint, model string, timeout time.Duration) *OllamaCompleter {
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaCompleter{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements Completer.
func (o *OllamaCompleter) Name() string { return ProviderOllama }

// Complete implements Completer.
func (o *OllamaCompleter) Complete(ctx context.Context, prompt string, history []domain.ChatMessage) (string, error) {
	messages := make([]ollamaMessage, 0, len(history)+2)
	messages = append(messages, ollamaMessage{Role: string(domain.RoleSystem), Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, ollamaMessage{Role: string(domain.RoleUser), Content: prompt})

	body, err := json.Marshal(ollamaChatRequest{Model: o.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("Complete: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("Complete: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Complete: call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("Complete: ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("Complete: decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("Complete: ollama: %s", out.Error)
	}

	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", fmt.Errorf("Complete: empty response from model")
	}
	return text, nil
}
