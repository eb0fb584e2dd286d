package model

import (
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is one turn in a chat.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the successful response of POST /api/chat.
type ChatResponse struct {
	Text string `json:"text"`
}

// SendMessageRequest is the request to send a message into a session chat.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessageResponse is the response after a send turn settles.
type SendMessageResponse struct {
	ChatID      string  `json:"chat_id"`
	UserMessage Message `json:"user_message"`
	Reply       Message `json:"reply"`
	Failed      bool    `json:"failed"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HeartbeatEvent represents a heartbeat event.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
