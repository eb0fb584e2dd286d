// Package model defines data structures for the Eva chat backend.
package model

import (
	"time"
)

// DefaultChatTitle is the title a chat carries until its first message.
const DefaultChatTitle = "New Chat"

// Chat is one independent conversation thread.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSummary is a chat without its message log.
type ChatSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionSnapshot is a read-only view of a session.
type SessionSnapshot struct {
	ID           string        `json:"id"`
	ActiveChatID string        `json:"active_chat_id"`
	Chats        []ChatSummary `json:"chats"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SelectChatRequest is the request to change the active chat.
type SelectChatRequest struct {
	ChatID string `json:"chat_id"`
}

// ListChatsResponse is the response for listing chats.
type ListChatsResponse struct {
	Chats        []ChatSummary `json:"chats"`
	ActiveChatID string        `json:"active_chat_id"`
}
