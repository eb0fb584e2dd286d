// Package client talks to the Eva API server.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/eva-wellness/eva/internal/gateway"
	"github.com/eva-wellness/eva/internal/model"
)

// DefaultServerURL is where the API server listens by default.
const DefaultServerURL = "http://localhost:3001"

// Client asks the API server's stateless chat endpoint for replies.
type Client struct {
	client *resty.Client
}

// New creates a client for the server at baseURL. A non-positive timeout
// uses gateway.DefaultTimeout plus a small margin for the hop.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if timeout <= 0 {
		timeout = gateway.DefaultTimeout + 5*time.Second
	}
	return &Client{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// Complete posts utterance to /api/chat and returns the reply text.
// Transport failures and non-2xx answers wrap model.ErrProviderFailure.
func (c *Client) Complete(ctx context.Context, utterance string) (string, error) {
	if strings.TrimSpace(utterance) == "" {
		return "", fmt.Errorf("utterance is empty: %w", model.ErrInvalidInput)
	}

	var body model.ChatResponse
	var apiErr model.ErrorResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(model.ChatRequest{Message: utterance}).
		SetResult(&body).
		SetError(&apiErr).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrProviderFailure, err)
	}

	if !res.IsSuccess() {
		if apiErr.Error != "" {
			return "", fmt.Errorf("%w: server returned %d: %s", model.ErrProviderFailure, res.StatusCode(), apiErr.Error)
		}
		return "", fmt.Errorf("%w: server returned %d", model.ErrProviderFailure, res.StatusCode())
	}

	if body.Text == "" {
		return gateway.NoResponseReply, nil
	}
	return body.Text, nil
}
