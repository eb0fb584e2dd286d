// Package config provides environment configuration for the API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/eva-wellness/eva/internal/gateway"
	"github.com/eva-wellness/eva/internal/llm"
	"github.com/eva-wellness/eva/internal/model"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string        `env:"PORT" envDefault:"3001"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"120s"`
	AllowedOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://*,http://*"`

	// Completion provider settings
	LLMProvider       llm.Provider           `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey      string                 `env:"GEMINI_API_KEY"`
	GeminiModel       string                 `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	GeminiBaseURL     string                 `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	OpenAIAPIKey      string                 `env:"OPENAI_API_KEY"`
	OpenAIModel       string                 `env:"OPENAI_MODEL"`
	OpenAIBaseURL     string                 `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey   string                 `env:"ANTHROPIC_API_KEY"`
	AnthropicModel    string                 `env:"ANTHROPIC_MODEL"`
	AnthropicBaseURL  string                 `env:"ANTHROPIC_BASE_URL"`
	MaxOutputTokens   int                    `env:"MAX_OUTPUT_TOKENS" envDefault:"300"`
	Temperature       float64                `env:"TEMPERATURE"`
	SafetyThreshold   llm.HarmBlockThreshold `env:"SAFETY_THRESHOLD" envDefault:"BLOCK_NONE"`
	CompletionTimeout time.Duration          `env:"COMPLETION_TIMEOUT" envDefault:"30s"`

	// JWT settings. An empty secret leaves /api/v1 unauthenticated.
	JWTSecret string `env:"JWT_SECRET"`

	// Rate limiting
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// NATS settings. An empty URL disables the event journal.
	NATSURL      string `env:"NATS_URL"`
	NATSCAFile   string `env:"NATS_CA_FILE"`
	NATSCertFile string `env:"NATS_CERT_FILE"`
	NATSKeyFile  string `env:"NATS_KEY_FILE"`
	NATSToken    string `env:"NATS_TOKEN"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Tracing
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
}

// Load reads configuration from a .env file, if one exists, and the
// environment, then validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected provider is known and has a credential.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", model.ErrConfiguration, c.LLMProvider)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("%w: %s must be set for provider %s", model.ErrConfiguration, c.apiKeyEnv(), c.LLMProvider)
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("%w: MAX_OUTPUT_TOKENS must be positive", model.ErrConfiguration)
	}
	if c.CompletionTimeout <= 0 {
		return fmt.Errorf("%w: COMPLETION_TIMEOUT must be positive", model.ErrConfiguration)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: TEMPERATURE must be between 0 and 2", model.ErrConfiguration)
	}
	if c.SafetyThreshold != "" && !c.SafetyThreshold.Valid() {
		return fmt.Errorf("%w: unknown SAFETY_THRESHOLD %q", model.ErrConfiguration, c.SafetyThreshold)
	}
	return nil
}

// Policy returns the default Eva policy adjusted by the configuration.
func (c *Config) Policy() gateway.Policy {
	policy := gateway.DefaultPolicy()
	policy.MaxOutputTokens = c.MaxOutputTokens
	policy.Temperature = c.Temperature
	if c.SafetyThreshold != "" {
		policy = policy.WithSafetyThreshold(c.SafetyThreshold)
	}
	return policy
}

// APIKey returns the credential of the selected provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case llm.ProviderOpenAI:
		return c.OpenAIAPIKey
	case llm.ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// LLMOptions returns the client options of the selected provider.
func (c *Config) LLMOptions() llm.Options {
	opts := llm.Options{Timeout: c.CompletionTimeout}
	switch c.LLMProvider {
	case llm.ProviderOpenAI:
		opts.Model = c.OpenAIModel
		opts.BaseURL = c.OpenAIBaseURL
	case llm.ProviderAnthropic:
		opts.Model = c.AnthropicModel
		opts.BaseURL = c.AnthropicBaseURL
	default:
		opts.Model = c.GeminiModel
		opts.BaseURL = c.GeminiBaseURL
	}
	return opts
}

func (c *Config) apiKeyEnv() string {
	switch c.LLMProvider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}
