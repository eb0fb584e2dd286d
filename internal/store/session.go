// Package store provides the in-memory conversation store.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eva-wellness/eva/internal/model"
)

// maxTitleRunes is the number of characters of the first message kept in a title.
const maxTitleRunes = 20

// SendState is the per-chat send state.
type SendState string

const (
	StateIdle    SendState = "idle"
	StateSending SendState = "sending"
)

type chat struct {
	id        string
	title     string
	titled    bool
	messages  []model.Message
	createdAt time.Time
	inFlight  int
}

func (c *chat) snapshot() model.Chat {
	messages := make([]model.Message, len(c.messages))
	copy(messages, c.messages)
	return model.Chat{
		ID:        c.id,
		Title:     c.title,
		Messages:  messages,
		CreatedAt: c.createdAt,
	}
}

func (c *chat) summary() model.ChatSummary {
	return model.ChatSummary{
		ID:           c.id,
		Title:        c.title,
		MessageCount: len(c.messages),
		CreatedAt:    c.createdAt,
	}
}

// Session owns a set of chats and the currently active one.
// A session always holds at least one chat.
type Session struct {
	id        string
	owner     string
	createdAt time.Time

	mu       sync.RWMutex
	chats    map[string]*chat
	order    []string
	activeID string
}

// NewSession creates a session with one default chat.
func NewSession(id, owner string) *Session {
	s := &Session{
		id:        id,
		owner:     owner,
		createdAt: time.Now(),
		chats:     make(map[string]*chat),
	}
	s.CreateChat()
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Owner returns the subject the session belongs to, if any.
func (s *Session) Owner() string {
	return s.owner
}

// CreateChat creates an empty chat, makes it active and returns its ID.
func (s *Session) CreateChat() string {
	c := &chat{
		id:        uuid.Must(uuid.NewV7()).String(),
		title:     model.DefaultChatTitle,
		createdAt: time.Now(),
	}

	s.mu.Lock()
	s.chats[c.id] = c
	s.order = append(s.order, c.id)
	s.activeID = c.id
	s.mu.Unlock()

	return c.id
}

// SelectChat makes the chat with the given ID active.
func (s *Session) SelectChat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return fmt.Errorf("chat %q: %w", id, model.ErrNotFound)
	}
	s.activeID = id
	return nil
}

// AppendMessage appends a message to a chat. The first message appended to a
// chat also sets its title.
func (s *Session) AppendMessage(chatID string, sender model.Sender, text string) (model.Message, error) {
	if text == "" {
		return model.Message{}, fmt.Errorf("message text is empty: %w", model.ErrInvalidInput)
	}
	if !sender.Valid() {
		return model.Message{}, fmt.Errorf("unknown sender %q: %w", sender, model.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		return model.Message{}, fmt.Errorf("chat %q: %w", chatID, model.ErrNotFound)
	}

	msg := model.Message{
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if !c.titled {
		c.title = TitleFrom(text)
		c.titled = true
	}
	c.messages = append(c.messages, msg)

	return msg, nil
}

// ActiveChat returns a snapshot of the active chat.
func (s *Session) ActiveChat() model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chats[s.activeID].snapshot()
}

// ActiveChatID returns the ID of the active chat.
func (s *Session) ActiveChatID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.activeID
}

// Chat returns a snapshot of the chat with the given ID.
func (s *Session) Chat(id string) (model.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[id]
	if !ok {
		return model.Chat{}, fmt.Errorf("chat %q: %w", id, model.ErrNotFound)
	}
	return c.snapshot(), nil
}

// Chats returns summaries of all chats in creation order.
func (s *Session) Chats() []model.ChatSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]model.ChatSummary, 0, len(s.order))
	for _, id := range s.order {
		summaries = append(summaries, s.chats[id].summary())
	}
	return summaries
}

// Snapshot returns a read-only view of the whole session.
func (s *Session) Snapshot() model.SessionSnapshot {
	s.mu.RLock()
	activeID := s.activeID
	s.mu.RUnlock()

	return model.SessionSnapshot{
		ID:           s.id,
		ActiveChatID: activeID,
		Chats:        s.Chats(),
		CreatedAt:    s.createdAt,
	}
}

// BeginSending marks one more send as in flight for a chat.
func (s *Session) BeginSending(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		return fmt.Errorf("chat %q: %w", chatID, model.ErrNotFound)
	}
	c.inFlight++
	return nil
}

// EndSending marks one in-flight send for a chat as settled.
func (s *Session) EndSending(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.chats[chatID]; ok && c.inFlight > 0 {
		c.inFlight--
	}
}

// State reports whether a chat has a send in flight.
func (s *Session) State(chatID string) SendState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.chats[chatID]; ok && c.inFlight > 0 {
		return StateSending
	}
	return StateIdle
}

// TitleFrom derives a chat title from the first message of a chat.
func TitleFrom(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTitleRunes {
		return text
	}
	return string(runes[:maxTitleRunes]) + "..."
}
