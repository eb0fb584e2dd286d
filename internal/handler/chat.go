package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eva-wellness/eva/internal/middleware"
	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/pkg/logger"
)

// Completer turns one utterance into one reply.
type Completer interface {
	Complete(ctx context.Context, utterance string) (string, error)
}

// ChatHandler handles the stateless chat proxy endpoint.
type ChatHandler struct {
	completer Completer
	logger    *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(completer Completer, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		completer: completer,
		logger:    log,
	}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := h.completer.Complete(ctx, strings.TrimSpace(req.Message))
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "No message provided")
			return
		}
		h.logger.Error("chat completion failed",
			zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "unable to get a response from the assistant")
		return
	}

	writeJSON(w, http.StatusOK, model.ChatResponse{Text: text})
}
