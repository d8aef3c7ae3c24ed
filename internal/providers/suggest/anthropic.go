package suggest

import (
	"context"
	"strings"
)

// AnthropicVersion is the Messages API version header value.
const AnthropicVersion = "2023-06-01"

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	key   string
	model string
	cfg   Config
	http  *remote
}

// NewAnthropic creates a Messages API client.
func NewAnthropic(cfg Config) *Anthropic {
	cfg.defaults()
	return &Anthropic{
		key:   cfg.AnthropicKey,
		model: cfg.AnthropicModel,
		cfg:   cfg,
		http:  newRemote(NameAnthropic, cfg.AnthropicBaseURL, cfg),
	}
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Name implements Provider.
func (p *Anthropic) Name() string { return NameAnthropic }

// Suggest implements Provider.
func (p *Anthropic) Suggest(ctx context.Context, req Request) (*Reply, error) {
	var out messagesResponse
	err := p.http.post(ctx, "/v1/messages", map[string]string{
		"x-api-key":         p.key,
		"anthropic-version": AnthropicVersion,
	}, messagesRequest{
		Model:       p.model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
	}, &out)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, ErrEmptyReply
	}
	return &Reply{Text: text.String(), TokensUsed: out.Usage.InputTokens + out.Usage.OutputTokens}, nil
}
