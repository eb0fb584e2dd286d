package nats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/pkg/logger"
)

func TestEventSubject(t *testing.T) {
	got := EventSubject("s1", "c1", model.EventTypeMessageAppended)
	assert.Equal(t, "eva.s1.c1.message_appended", got)
}

func TestSessionFilter(t *testing.T) {
	assert.Equal(t, "eva.s1.>", SessionFilter("s1"))
}

func TestConnectRequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), Config{}, logger.NewNop())
	assert.Error(t, err)
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := Connect(ctx, Config{URL: "nats://127.0.0.1:1"}, logger.NewNop())
	assert.Error(t, err)
}

func TestConnectOptionsTLS(t *testing.T) {
	base := connectOptions(context.Background(), Config{URL: "nats://x"}, logger.NewNop())
	withTLS := connectOptions(context.Background(), Config{
		URL:      "nats://x",
		CAFile:   "ca.pem",
		CertFile: "cert.pem",
		KeyFile:  "key.pem",
		Token:    "t",
	}, logger.NewNop())

	assert.Len(t, withTLS, len(base)+3)
}
