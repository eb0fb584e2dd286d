package model

import (
	"time"
)

// EventType represents the type of chat event.
type EventType string

const (
	EventTypeChatCreated      EventType = "chat_created"
	EventTypeChatSelected     EventType = "chat_selected"
	EventTypeMessageAppended  EventType = "message_appended"
	EventTypeTypingStarted    EventType = "typing_started"
	EventTypeTypingStopped    EventType = "typing_stopped"
	EventTypeCompletionFailed EventType = "completion_failed"
)

// ChatEvent records something that happened in a session.
type ChatEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	ChatID    string    `json:"chat_id"`
	Type      EventType `json:"type"`
	Message   *Message  `json:"message,omitempty"`
	Title     string    `json:"title,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
