package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eva-wellness/eva/internal/middleware"
	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/internal/service"
	"github.com/eva-wellness/eva/internal/store"
	"github.com/eva-wellness/eva/pkg/logger"
	"github.com/eva-wellness/eva/pkg/metrics"
)

// SessionHandler handles session and chat endpoints.
type SessionHandler struct {
	registry    *store.Registry
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(registry *store.Registry, chatSvc *service.ChatService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		registry:    registry,
		chatService: chatSvc,
		logger:      log,
	}
}

// session resolves the {sid} URL parameter for the caller, writing an
// error response when it cannot.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sessionID := chi.URLParam(r, "sid")
	if err := middleware.ValidateID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	sess, err := h.registry.Get(sessionID, middleware.GetSubject(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.registry.Create(middleware.GetSubject(r.Context()))
	metrics.SessionsTotal.Inc()
	metrics.ChatsTotal.Inc()

	h.logger.Info("session created",
		zap.String("session_id", sess.ID()),
		zap.Int("sessions", h.registry.Len()),
	)

	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// Get handles GET /api/v1/sessions/{sid}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// ListChats handles GET /api/v1/sessions/{sid}/chats
func (h *SessionHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.ListChatsResponse{
		Chats:        sess.Chats(),
		ActiveChatID: sess.ActiveChatID(),
	})
}

// CreateChat handles POST /api/v1/sessions/{sid}/chats
func (h *SessionHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), sess)
	if err != nil {
		h.logger.Error("failed to create chat", zap.String("session_id", sess.ID()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

// ActiveChat handles GET /api/v1/sessions/{sid}/chats/active
func (h *SessionHandler) ActiveChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.ActiveChat())
}

// SelectChat handles PUT /api/v1/sessions/{sid}/active
func (h *SessionHandler) SelectChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req model.SelectChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateID(req.ChatID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.chatService.SelectChat(r.Context(), sess, req.ChatID); err != nil {
		writeServiceError(w, err, "chat not found")
		return
	}

	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// GetChat handles GET /api/v1/sessions/{sid}/chats/{cid}
func (h *SessionHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	chat, err := sess.Chat(chi.URLParam(r, "cid"))
	if err != nil {
		writeServiceError(w, err, "chat not found")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// Send handles POST /api/v1/sessions/{sid}/chats/{cid}/messages
func (h *SessionHandler) Send(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	chatID := chi.URLParam(r, "cid")
	if err := middleware.ValidateID(chatID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	turn, err := h.chatService.Send(r.Context(), sess, chatID, req.Text)
	if err != nil {
		writeServiceError(w, err, "chat not found")
		return
	}

	writeJSON(w, http.StatusCreated, model.SendMessageResponse{
		ChatID:      turn.ChatID,
		UserMessage: turn.UserMessage,
		Reply:       turn.Reply,
		Failed:      turn.Failed,
	})
}
