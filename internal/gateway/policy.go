package gateway

import "github.com/eva-wellness/eva/internal/llm"

const (
	// FallbackReply replaces a reply when the provider call fails.
	FallbackReply = "Sorry, I am unable to respond at the moment."

	// NoResponseReply replaces an empty provider reply.
	NoResponseReply = "Sorry, I didn't get a response."

	// DefaultPersona restricts replies to the health and wellness domain.
	DefaultPersona = "You are Eva, an emotional virtual assistant focused on health and wellness. " +
		"Only respond to topics related to mental, physical, and emotional well-being. " +
		"Politely refuse unrelated topics. Do not give medical advice. " +
		"Always encourage users to consult healthcare professionals."

	// DefaultMaxOutputTokens caps the length of each reply.
	DefaultMaxOutputTokens = 300
)

// Policy is the fixed behavior sent with every provider call.
type Policy struct {
	Persona         string
	Seed            []llm.ChatMessage
	SafetySettings  []llm.SafetySetting
	MaxOutputTokens int
	Model           string
	// Temperature is left to the provider when zero.
	Temperature float64
}

// DefaultPolicy returns the Eva persona, its greeting seed, permissive
// safety thresholds and the default output cap.
func DefaultPolicy() Policy {
	return Policy{
		Persona: DefaultPersona,
		Seed: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: "Hello! You are Eva, an AI-based emotional virtual assistant."},
			{Role: llm.RoleAssistant, Content: "Hello! How can I help you today?"},
		},
		SafetySettings: []llm.SafetySetting{
			{Category: llm.HarmCategoryHarassment, Threshold: llm.BlockNone},
			{Category: llm.HarmCategoryHateSpeech, Threshold: llm.BlockNone},
			{Category: llm.HarmCategorySexuallyExplicit, Threshold: llm.BlockNone},
			{Category: llm.HarmCategoryDangerousContent, Threshold: llm.BlockNone},
		},
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// request builds the provider request for one utterance. The seed is copied
// so a request never aliases the policy.
func (p Policy) request(utterance string) *llm.CompletionRequest {
	messages := make([]llm.ChatMessage, 0, len(p.Seed)+1)
	messages = append(messages, p.Seed...)
	messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: utterance})

	return &llm.CompletionRequest{
		Model:          p.Model,
		SystemPrompt:   p.Persona,
		Messages:       messages,
		SafetySettings: p.SafetySettings,
		MaxTokens:      p.MaxOutputTokens,
		Temperature:    p.Temperature,
	}
}

// WithSafetyThreshold returns a copy of p that applies threshold to every
// safety category.
func (p Policy) WithSafetyThreshold(threshold llm.HarmBlockThreshold) Policy {
	settings := make([]llm.SafetySetting, len(p.SafetySettings))
	for i, s := range p.SafetySettings {
		settings[i] = llm.SafetySetting{Category: s.Category, Threshold: threshold}
	}
	p.SafetySettings = settings
	return p
}
