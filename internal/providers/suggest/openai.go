package suggest

import (
	"context"
	"strings"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	name  string
	key   string
	model string
	cfg   Config
	http  *remote
}

// NewOpenAI creates a chat completions client. name labels the backend
// (openai, openrouter, ollama); key may be empty for local servers.
func NewOpenAI(name, baseURL, key, model string, cfg Config) *OpenAI {
	cfg.defaults()
	return &OpenAI{name: name, key: key, model: model, cfg: cfg, http: newRemote(name, baseURL, cfg)}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Name implements Provider.
func (p *OpenAI) Name() string { return p.name }

// Suggest implements Provider.
func (p *OpenAI) Suggest(ctx context.Context, req Request) (*Reply, error) {
	headers := map[string]string{}
	if p.key != "" {
		headers["Authorization"] = "Bearer " + p.key
	}

	var out chatResponse
	err := p.http.post(ctx, "/chat/completions", headers, chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyReply
	}

	text := out.Choices[0].Message.Content
	tokens := out.Usage.TotalTokens
	if tokens == 0 {
		tokens = estimateTokens(req.Prompt, text)
	}
	return &Reply{Text: text, TokensUsed: tokens}, nil
}
