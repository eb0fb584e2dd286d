// Package gateway turns one user utterance into one assistant reply by
// delegating to a completion provider under a fixed policy.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/eva-wellness/eva/internal/llm"
	"github.com/eva-wellness/eva/internal/model"
	"github.com/eva-wellness/eva/pkg/logger"
	"github.com/eva-wellness/eva/pkg/metrics"
)

// DefaultTimeout bounds a provider call when none is configured.
const DefaultTimeout = 30 * time.Second

// ProviderError wraps a provider failure. It matches model.ErrProviderFailure
// under errors.Is.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", model.ErrProviderFailure, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{model.ErrProviderFailure, e.Err}
}

// Gateway is the completion boundary. It holds no state between calls.
type Gateway struct {
	client  llm.Client
	policy  Policy
	timeout time.Duration
	logger  *logger.Logger
	tracer  trace.Tracer
}

// New creates a gateway over client. A non-positive timeout uses DefaultTimeout.
func New(client llm.Client, policy Policy, timeout time.Duration, log *logger.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		client:  client,
		policy:  policy,
		timeout: timeout,
		logger:  log,
		tracer:  otel.Tracer("github.com/eva-wellness/eva/internal/gateway"),
	}
}

// Provider returns the name of the underlying provider.
func (g *Gateway) Provider() string {
	return g.client.Name()
}

type result struct {
	resp *llm.CompletionResponse
	err  error
}

// Complete asks the provider for a reply to utterance. Failures of any kind
// come back as *ProviderError. An empty provider reply is not a failure and
// yields NoResponseReply.
func (g *Gateway) Complete(ctx context.Context, utterance string) (string, error) {
	if strings.TrimSpace(utterance) == "" {
		return "", fmt.Errorf("utterance is empty: %w", model.ErrInvalidInput)
	}

	provider := g.client.Name()
	ctx, span := g.tracer.Start(ctx, "gateway.Complete", trace.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.Int("llm.max_output_tokens", g.policy.MaxOutputTokens),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		resp, err := g.client.Complete(ctx, g.policy.request(utterance))
		done <- result{resp: resp, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	elapsed := time.Since(start)

	if res.err == nil && res.resp == nil {
		res.err = errors.New("provider returned no response")
	}
	if res.err != nil {
		metrics.RecordCompletion(provider, "failure", elapsed.Seconds(), 0, 0)
		span.RecordError(res.err)
		span.SetStatus(codes.Error, "completion failed")
		g.logger.Warn("completion provider failed",
			zap.String("provider", provider),
			zap.Duration("elapsed", elapsed),
			zap.Error(res.err),
		)
		return "", &ProviderError{Provider: provider, Err: res.err}
	}

	resp := res.resp
	metrics.RecordCompletion(provider, "success", elapsed.Seconds(), resp.TokensIn, resp.TokensOut)
	span.SetAttributes(
		attribute.String("llm.model", resp.Model),
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
		attribute.String("llm.stop_reason", resp.StopReason),
	)
	g.logger.Debug("completion received",
		zap.String("provider", provider),
		zap.String("model", resp.Model),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Duration("elapsed", elapsed),
	)

	if resp.Content == "" {
		return NoResponseReply, nil
	}
	return resp.Content, nil
}

// Reply is Complete with every failure replaced by FallbackReply.
func (g *Gateway) Reply(ctx context.Context, utterance string) string {
	text, err := g.Complete(ctx, utterance)
	if err != nil {
		return FallbackReply
	}
	return text
}
