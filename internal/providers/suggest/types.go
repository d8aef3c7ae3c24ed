package suggest

import (
	"context"
	"errors"
	"time"
)

// Provider names accepted by New.
const (
	NameAuto       = "auto"
	NameOpenAI     = "openai"
	NameOpenRouter = "openrouter"
	NameOllama     = "ollama"
	NameAnthropic  = "anthropic"
	NameGemini     = "gemini"
	NameHeuristic  = "heuristic"
	NameNone       = "none"
)

var (
	// ErrNotConfigured is returned by a provider that has no credentials.
	ErrNotConfigured = errors.New("no suggestion provider configured")
	// ErrEmptyReply is returned when a backend answers without text.
	ErrEmptyReply = errors.New("provider returned an empty reply")
)

// Request is one repair question. Prompt is the complete text sent to a
// model; the remaining fields let offline providers answer without it.
type Request struct {
	Prompt       string
	Selector     string
	SelectorName string
	PageType     string
	Expected     string
}

// Reply is the raw model answer.
type Reply struct {
	Text       string
	TokensUsed int
}

// Provider proposes selectors.
type Provider interface {
	Name() string
	Suggest(ctx context.Context, req Request) (*Reply, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	AnthropicKey     string
	AnthropicBaseURL string
	AnthropicModel   string

	GeminiKey     string
	GeminiBaseURL string
	GeminiModel   string

	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Retries     int
}

func (c *Config) defaults() {
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-3.5-turbo"
	}
	if c.AnthropicBaseURL == "" {
		c.AnthropicBaseURL = "https://api.anthropic.com"
	}
	if c.AnthropicModel == "" {
		c.AnthropicModel = "claude-3-haiku-20240307"
	}
	if c.GeminiBaseURL == "" {
		c.GeminiBaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-1.5-flash"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 200
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
}
