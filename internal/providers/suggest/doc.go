// Package suggest asks a text model for a replacement selector.
//
// Every backend satisfies Provider: OpenAI-compatible chat completions
// (OpenAI, OpenRouter, Ollama), Anthropic Messages and Gemini
// generateContent over resty behind a circuit breaker, plus an offline
// heuristic for tests and air-gapped runs. New picks one from Config.
package suggest
