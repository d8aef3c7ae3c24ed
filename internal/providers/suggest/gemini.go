package suggest

import (
	"context"
	"net/url"
	"strings"
)

// Gemini calls the Gemini generateContent endpoint.
type Gemini struct {
	key   string
	model string
	cfg   Config
	http  *remote
}

// NewGemini creates a generateContent client.
func NewGemini(cfg Config) *Gemini {
	cfg.defaults()
	return &Gemini{
		key:   cfg.GeminiKey,
		model: cfg.GeminiModel,
		cfg:   cfg,
		http:  newRemote(NameGemini, cfg.GeminiBaseURL, cfg),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens"`
		Temperature     float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Name implements Provider.
func (p *Gemini) Name() string { return NameGemini }

// Suggest implements Provider.
func (p *Gemini) Suggest(ctx context.Context, req Request) (*Reply, error) {
	body := geminiRequest{Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}}}
	body.GenerationConfig.MaxOutputTokens = p.cfg.MaxTokens
	body.GenerationConfig.Temperature = p.cfg.Temperature

	path := "/v1beta/models/" + url.PathEscape(p.model) + ":generateContent"
	var out geminiResponse
	if err := p.http.post(ctx, path, map[string]string{"x-goog-api-key": p.key}, body, &out); err != nil {
		return nil, err
	}

	var text strings.Builder
	if len(out.Candidates) > 0 {
		for _, part := range out.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, ErrEmptyReply
	}

	tokens := out.UsageMetadata.TotalTokenCount
	if tokens == 0 {
		tokens = estimateTokens(req.Prompt, text.String())
	}
	return &Reply{Text: text.String(), TokensUsed: tokens}, nil
}
