// Package service drives chat turns across the conversation store and the
// completion boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eva-wellness/eva/internal/gateway"
	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/internal/store"
	"github.com/eva-wellness/eva/pkg/logger"
	"github.com/eva-wellness/eva/pkg/metrics"
)

// Replier produces an assistant reply for one utterance.
type Replier interface {
	Complete(ctx context.Context, utterance string) (string, error)
}

// Journal records chat events outside the process.
type Journal interface {
	Publish(ctx context.Context, ev *model.ChatEvent) error
}

// Turn is the outcome of one send.
type Turn struct {
	ChatID      string
	UserMessage model.Message
	Reply       model.Message
	// Failed is set when Reply carries the fallback text.
	Failed bool
}

// ChatService handles chat operations.
type ChatService struct {
	replier      Replier
	broker       *Broker
	journal      *journalWriter
	logger       *logger.Logger
	fallbackText string

	journalTarget Journal
}

// Option configures a ChatService.
type Option func(*ChatService)

// WithBroker publishes chat events to b.
func WithBroker(b *Broker) Option {
	return func(s *ChatService) { s.broker = b }
}

// WithJournal records chat events to j in the background. Call Close to
// flush pending events.
func WithJournal(j Journal) Option {
	return func(s *ChatService) { s.journalTarget = j }
}

// WithFallbackText overrides the reply shown when the replier fails.
func WithFallbackText(text string) Option {
	return func(s *ChatService) { s.fallbackText = text }
}

// NewChatService creates a new chat service.
func NewChatService(replier Replier, log *logger.Logger, opts ...Option) *ChatService {
	s := &ChatService{
		replier:      replier,
		logger:       log,
		fallbackText: gateway.FallbackReply,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.journalTarget != nil {
		s.journal = newJournalWriter(s.journalTarget, journalPublishTimeout, log)
	}
	return s
}

// Close flushes queued journal events. The service must not be used after.
func (s *ChatService) Close() {
	if s.journal != nil {
		s.journal.close()
	}
}

// CreateChat creates a chat in sess and makes it active.
func (s *ChatService) CreateChat(ctx context.Context, sess *store.Session) (model.Chat, error) {
	id := sess.CreateChat()
	metrics.ChatsTotal.Inc()

	c, err := sess.Chat(id)
	if err != nil {
		return model.Chat{}, err
	}
	s.emit(ctx, sess.ID(), id, model.EventTypeChatCreated, func(ev *model.ChatEvent) {
		ev.Title = c.Title
	})
	return c, nil
}

// SelectChat makes chatID the active chat of sess.
func (s *ChatService) SelectChat(ctx context.Context, sess *store.Session, chatID string) error {
	if err := sess.SelectChat(chatID); err != nil {
		return err
	}
	s.emit(ctx, sess.ID(), chatID, model.EventTypeChatSelected, nil)
	return nil
}

// Send records text as a user message in chatID, asks the replier for an
// answer and records it. The user message is appended before the replier is
// called and the reply only after the call settles. A replier failure is
// logged and recorded as the fallback text. The call is not cancelled when
// ctx is, so the reply always lands in the chat the send was issued against.
func (s *ChatService) Send(ctx context.Context, sess *store.Session, chatID, text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is empty: %w", model.ErrInvalidInput)
	}

	log := s.logger.WithSession(sess.ID(), chatID)

	userMsg, err := sess.AppendMessage(chatID, model.SenderUser, text)
	if err != nil {
		return nil, err
	}
	if err := sess.BeginSending(chatID); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(model.SenderUser)).Inc()
	s.emitMessage(ctx, sess, chatID, userMsg)
	s.emit(ctx, sess.ID(), chatID, model.EventTypeTypingStarted, nil)

	turn := &Turn{ChatID: chatID, UserMessage: userMsg}

	replyText, err := s.replier.Complete(context.WithoutCancel(ctx), text)
	if err != nil {
		log.Error("completion failed, using fallback reply", zap.Error(err))
		s.emit(ctx, sess.ID(), chatID, model.EventTypeCompletionFailed, func(ev *model.ChatEvent) {
			ev.Reason = failureReason(err)
		})
		replyText = s.fallbackText
		turn.Failed = true
	}

	reply, appendErr := sess.AppendMessage(chatID, model.SenderAssistant, replyText)
	sess.EndSending(chatID)
	s.emit(ctx, sess.ID(), chatID, model.EventTypeTypingStopped, nil)
	if appendErr != nil {
		return nil, appendErr
	}
	metrics.MessagesTotal.WithLabelValues(string(model.SenderAssistant)).Inc()
	s.emitMessage(ctx, sess, chatID, reply)

	turn.Reply = reply
	return turn, nil
}

// failureReason is the operator-facing category of a replier failure.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, model.ErrProviderFailure):
		return "provider_failure"
	default:
		return "error"
	}
}

func (s *ChatService) emitMessage(ctx context.Context, sess *store.Session, chatID string, msg model.Message) {
	s.emit(ctx, sess.ID(), chatID, model.EventTypeMessageAppended, func(ev *model.ChatEvent) {
		m := msg
		ev.Message = &m
		if c, err := sess.Chat(chatID); err == nil {
			ev.Title = c.Title
		}
	})
}

func (s *ChatService) emit(ctx context.Context, sessionID, chatID string, typ model.EventType, fill func(*model.ChatEvent)) {
	if s.broker == nil && s.journal == nil {
		return
	}

	ev := model.ChatEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		ChatID:    chatID,
		Type:      typ,
		CreatedAt: time.Now(),
	}
	if fill != nil {
		fill(&ev)
	}

	if s.broker != nil {
		if dropped := s.broker.Publish(ev); dropped > 0 {
			s.logger.Warn("event dropped for slow subscribers",
				zap.String("session_id", sessionID),
				zap.String("event_type", string(typ)),
				zap.Int("dropped", dropped),
			)
		}
	}
	if s.journal != nil {
		s.journal.enqueue(ev)
	}
}
