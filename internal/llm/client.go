// Package llm provides completion provider interfaces and implementations.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Roles used in ChatMessage. Providers translate them to their own vocabulary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HarmCategory is a content category a provider may filter on.
type HarmCategory string

const (
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// HarmBlockThreshold is the blocking level applied to a HarmCategory.
type HarmBlockThreshold string

const (
	BlockNone           HarmBlockThreshold = "BLOCK_NONE"
	BlockOnlyHigh       HarmBlockThreshold = "BLOCK_ONLY_HIGH"
	BlockMediumAndAbove HarmBlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	BlockLowAndAbove    HarmBlockThreshold = "BLOCK_LOW_AND_ABOVE"
)

// Valid reports whether t is a known threshold.
func (t HarmBlockThreshold) Valid() bool {
	switch t {
	case BlockNone, BlockOnlyHigh, BlockMediumAndAbove, BlockLowAndAbove:
		return true
	}
	return false
}

// SafetySetting pairs a category with its threshold.
type SafetySetting struct {
	Category  HarmCategory
	Threshold HarmBlockThreshold
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model          string
	SystemPrompt   string
	Messages       []ChatMessage
	SafetySettings []SafetySetting
	MaxTokens      int
	Temperature    float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for completion providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of completion provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Options tune a provider client.
type Options struct {
	// Model overrides the provider's default model.
	Model string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	// Timeout bounds the HTTP round trip. Zero means no client-side limit.
	Timeout time.Duration
}

// NewClient creates a new completion client based on provider.
func NewClient(provider Provider, apiKey string, opts Options) (Client, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiClient(apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
