package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/gateway"
	"github.com/rs/zerolog"
)

// maxChatBody caps the request body. Prompts are clipped later anyway; this
// only bounds what is read off the wire.
const maxChatBody = 256 << 10

// Gateway answers chat prompts.
type Gateway interface {
	Answer(ctx context.Context, prompt, userID string, history []domain.ChatMessage) gateway.ChatResult
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history,omitempty"`
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	gateway Gateway
	log     zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(g Gateway, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{gateway: g, log: log}
}

// PostChat handles POST /api/chat
func (h *ChatHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := h.gateway.Answer(r.Context(), req.Message, middleware.GetUserID(r.Context()), req.History)
	if !res.OK {
		middleware.WriteJSON(w, middleware.StatusFor(res.Err), res)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}
