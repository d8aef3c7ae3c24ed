package suggest

import (
	"fmt"
	"strings"
)

const defaultOllamaURL = "http://localhost:11434/v1"

const missingKeys = "set one of GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY"

// New builds the provider named by cfg.Provider. "auto" picks the first
// backend with a key (Gemini, OpenAI, Anthropic) and otherwise returns an
// Unavailable provider. "mock" and "offline" are aliases of "heuristic".
func New(cfg Config) Provider {
	cfg.defaults()

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case "", NameAuto:
		switch {
		case cfg.GeminiKey != "":
			return NewGemini(cfg)
		case cfg.OpenAIKey != "":
			return NewOpenAI(NameOpenAI, cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel, cfg)
		case cfg.AnthropicKey != "":
			return NewAnthropic(cfg)
		}
		return NewUnavailable(missingKeys)
	case NameHeuristic, "mock", "offline":
		return NewHeuristic()
	case NameGemini:
		if cfg.GeminiKey == "" {
			return NewUnavailable("GEMINI_API_KEY is not set")
		}
		return NewGemini(cfg)
	case NameAnthropic:
		if cfg.AnthropicKey == "" {
			return NewUnavailable("ANTHROPIC_API_KEY is not set")
		}
		return NewAnthropic(cfg)
	case NameOpenAI, NameOpenRouter:
		if cfg.OpenAIKey == "" {
			return NewUnavailable("OPENAI_API_KEY is not set")
		}
		base := cfg.OpenAIBaseURL
		if name == NameOpenRouter && strings.Contains(base, "api.openai.com") {
			base = "https://openrouter.ai/api/v1"
		}
		return NewOpenAI(name, base, cfg.OpenAIKey, cfg.OpenAIModel, cfg)
	case NameOllama, "local":
		base := cfg.OpenAIBaseURL
		if strings.Contains(base, "api.openai.com") {
			base = defaultOllamaURL
		}
		return NewOpenAI(NameOllama, base, cfg.OpenAIKey, cfg.OpenAIModel, cfg)
	case NameNone:
		return NewUnavailable("suggestions disabled")
	default:
		return NewUnavailable(fmt.Sprintf("unknown provider %q", cfg.Provider))
	}
}
