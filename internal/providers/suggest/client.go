package suggest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/resilience"
)

const errorBodyPreview = 200

// remote is the transport shared by the HTTP backends.
type remote struct {
	name    string
	client  *resty.Client
	breaker *resilience.Breaker
}

func newRemote(name, baseURL string, cfg Config) *remote {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	breaker := resilience.New(name, resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})
	return &remote{name: name, client: client, breaker: breaker}
}

// post sends body to path and decodes a 2xx answer into result.
func (r *remote) post(ctx context.Context, path string, headers map[string]string, body, result any) error {
	return r.breaker.Do(ctx, func(ctx context.Context) error {
		resp, err := r.client.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetBody(body).
			SetResult(result).
			Post(path)
		if err != nil {
			return fmt.Errorf("%s request failed: %w", r.name, err)
		}
		if resp.IsError() {
			return fmt.Errorf("%s: HTTP %d: %s", r.name, resp.StatusCode(), preview(resp.String()))
		}
		return nil
	})
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= errorBodyPreview {
		return s
	}
	return s[:errorBodyPreview]
}

// estimateTokens approximates usage for backends that do not report it.
func estimateTokens(prompt, reply string) int {
	return len(strings.Fields(prompt)) + len(strings.Fields(reply))
}
