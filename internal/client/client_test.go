package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eva-wellness/eva/internal/gateway"
	"github.com/eva-wellness/eva/internal/model"
)

func TestComplete(t *testing.T) {
	var got model.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Let's take a breath."}`))
	}))
	defer srv.Close()

	text, err := New(srv.URL+"/", time.Second).Complete(context.Background(), "I feel anxious")

	require.NoError(t, err)
	assert.Equal(t, "Let's take a breath.", text)
	assert.Equal(t, "I feel anxious", got.Message)
}

func TestCompleteEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	text, err := New(srv.URL, time.Second).Complete(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, gateway.NoResponseReply, text)
}

func TestCompleteFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server error with body", http.StatusInternalServerError, `{"error":"unavailable"}`, "unavailable"},
		{"bad request", http.StatusBadRequest, `{"error":"No message provided"}`, "400"},
		{"no body", http.StatusBadGateway, ``, "502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.body != "" {
					w.Header().Set("Content-Type", "application/json")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second).Complete(context.Background(), "hi")

			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrProviderFailure)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCompleteTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Complete(context.Background(), "hi")

	assert.ErrorIs(t, err, model.ErrProviderFailure)
}

func TestCompleteBlank(t *testing.T) {
	_, err := New("", 0).Complete(context.Background(), "  ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
