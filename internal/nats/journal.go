package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/eva-wellness/eva/internal/model"
)

const (
	// StreamName is the name of the chat events stream.
	StreamName = "EVA_CHAT_EVENTS"

	// SubjectPrefix is the prefix for all chat event subjects.
	SubjectPrefix = "eva"

	// streamMaxAge bounds how long journaled events are retained.
	streamMaxAge = 30 * 24 * time.Hour
)

// Journal writes chat events to a JetStream stream for operators and
// downstream consumers. The service never reads them back.
type Journal struct {
	client *Client
}

// NewJournal creates a journal over client.
func NewJournal(client *Client) *Journal {
	return &Journal{client: client}
}

// EnsureStream ensures the chat events stream exists.
func (j *Journal) EnsureStream(ctx context.Context) error {
	_, err := j.client.JetStream().CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      streamMaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Eva chat session events",
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}
	return nil
}

// EventSubject returns the subject for a chat event.
func EventSubject(sessionID, chatID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, sessionID, chatID, eventType)
}

// SessionFilter returns the filter subject for all events of a session.
func SessionFilter(sessionID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, sessionID)
}

// Publish publishes a chat event. The event ID doubles as the JetStream
// message ID so retried publishes are deduplicated.
func (j *Journal) Publish(ctx context.Context, ev *model.ChatEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := EventSubject(ev.SessionID, ev.ChatID, ev.Type)
	if _, err := j.client.JetStream().Publish(ctx, subject, data, jetstream.WithMsgID(ev.ID)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Healthy reports whether the journal can currently accept events.
func (j *Journal) Healthy() bool {
	return j.client.IsConnected()
}
