package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/resilience"
)

const reply = `{"selector": ".novel-card h3", "confidence": 0.8, "explanation": "class renamed"}`

func testConfig() Config {
	return Config{Timeout: 2 * time.Second, MaxTokens: 100, Temperature: 0.3}
}

func TestOpenAISuggest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
			"usage":   map[string]int{"total_tokens": 321},
		})
	}))
	defer srv.Close()

	p := NewOpenAI(NameOpenAI, srv.URL+"/v1", "sk-test", "gpt-test", testConfig())
	out, err := p.Suggest(context.Background(), Request{Prompt: "fix it"})

	require.NoError(t, err)
	assert.Equal(t, reply, out.Text)
	assert.Equal(t, 321, out.TokensUsed)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "fix it", got.Messages[0].Content)
	assert.Equal(t, NameOpenAI, p.Name())
}

func TestOpenAIWithoutKeySendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	out, err := NewOpenAI(NameOllama, srv.URL, "", "llama3", testConfig()).Suggest(context.Background(), Request{Prompt: "a b c"})
	require.NoError(t, err)
	assert.Equal(t, 4, out.TokensUsed, "estimated from words when usage is absent")
}

func TestAnthropicSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, AnthropicVersion, r.Header.Get("anthropic-version"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": reply}},
			"usage":   map[string]int{"input_tokens": 90, "output_tokens": 30},
		})
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.AnthropicKey = "ak-test"
	cfg.AnthropicBaseURL = srv.URL
	out, err := NewAnthropic(cfg).Suggest(context.Background(), Request{Prompt: "fix it"})

	require.NoError(t, err)
	assert.Equal(t, reply, out.Text)
	assert.Equal(t, 120, out.TokensUsed)
}

func TestGeminiSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "gk-test", r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates":    []map[string]any{{"content": map[string]any{"parts": []map[string]string{{"text": reply}}}}},
			"usageMetadata": map[string]int{"totalTokenCount": 77},
		})
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.GeminiKey = "gk-test"
	cfg.GeminiBaseURL = srv.URL
	cfg.GeminiModel = "gemini-test"
	out, err := NewGemini(cfg).Suggest(context.Background(), Request{Prompt: "fix it"})

	require.NoError(t, err)
	assert.Equal(t, reply, out.Text)
	assert.Equal(t, 77, out.TokensUsed)
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, "HTTP 401"},
		{"server error", http.StatusInternalServerError, "boom", "HTTP 500: boom"},
		{"empty choices", http.StatusOK, `{"choices":[]}`, ErrEmptyReply.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAI(NameOpenAI, srv.URL, "k", "m", testConfig()).Suggest(context.Background(), Request{Prompt: "p"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRemoteBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewOpenAI(NameOpenAI, srv.URL, "k", "m", testConfig())
	for range 3 {
		_, err := p.Suggest(context.Background(), Request{Prompt: "p"})
		require.Error(t, err)
	}
	_, err := p.Suggest(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOpenAI(NameOpenAI, url, "k", "m", testConfig()).Suggest(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestHeuristicRewrite(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{".novel-item", ".novel-card", true},
		{".novel-item h3 a", ".novel-card h3 a", true},
		{".book-title", ".book-name", true},
		{"#synopsis", ".synopsis", true},
		{"#chapter-content p", ".chapter-content p", true},
		{"h1", "div.content h1", true},
		{"div.summary > p", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Rewrite(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeuristicSuggest(t *testing.T) {
	out, err := NewHeuristic().Suggest(context.Background(), Request{Selector: "#author"})
	require.NoError(t, err)

	var parsed suggestionJSON
	require.NoError(t, json.Unmarshal([]byte(out.Text), &parsed))
	assert.Equal(t, ".author", parsed.Selector)
	assert.Equal(t, HeuristicConfidence, parsed.Confidence)
	assert.Equal(t, heuristicExplanation, parsed.Explanation)
	assert.Zero(t, out.TokensUsed)

	out, err = NewHeuristic().Suggest(context.Background(), Request{Selector: "div > p"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out.Text), &parsed))
	assert.Empty(t, parsed.Selector)
	assert.Zero(t, parsed.Confidence)
}

func TestUnavailable(t *testing.T) {
	_, err := NewUnavailable("no keys").Suggest(context.Background(), Request{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Contains(t, err.Error(), "no keys")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"auto without keys", Config{}, NameNone},
		{"auto prefers gemini", Config{GeminiKey: "g", OpenAIKey: "o", AnthropicKey: "a"}, NameGemini},
		{"auto then openai", Config{OpenAIKey: "o", AnthropicKey: "a"}, NameOpenAI},
		{"auto then anthropic", Config{Provider: "auto", AnthropicKey: "a"}, NameAnthropic},
		{"heuristic", Config{Provider: "heuristic"}, NameHeuristic},
		{"mock alias", Config{Provider: "Mock"}, NameHeuristic},
		{"offline alias", Config{Provider: "offline"}, NameHeuristic},
		{"explicit without key", Config{Provider: "anthropic"}, NameNone},
		{"openrouter", Config{Provider: "openrouter", OpenAIKey: "o"}, NameOpenRouter},
		{"ollama needs no key", Config{Provider: "ollama"}, NameOllama},
		{"unknown", Config{Provider: "bard"}, NameNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.cfg).Name())
		})
	}
}
