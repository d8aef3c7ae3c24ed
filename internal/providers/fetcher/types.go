package fetcher

import (
	"context"
	"errors"
	"time"
)

// FetchResult is the outcome of fetching one URL. Exactly one of HTML and
// Error is meaningful: failed fetches carry an empty HTML.
type FetchResult struct {
	URL         string        `json:"url"`
	HTML        string        `json:"html"`
	StatusCode  int           `json:"status_code"`
	Elapsed     time.Duration `json:"elapsed"`
	UsedJS      bool          `json:"used_js"`
	Error       string        `json:"error,omitempty"`
	Cached      bool          `json:"cached"`
	ContentType string        `json:"content_type,omitempty"`
}

// OK reports whether the fetch produced a page.
func (r *FetchResult) OK() bool {
	return r != nil && r.Error == ""
}

// Mode names how the page was obtained, for metrics and logs.
func (r *FetchResult) Mode() string {
	if r.UsedJS {
		return "browser"
	}
	return "http"
}

// PageFetcher is the capability the validator and generator depend on.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, forceJS bool) *FetchResult
}

// Renderer loads a page in a real browser and returns its rendered markup.
type Renderer interface {
	Render(ctx context.Context, url string) (html string, status int, err error)
	Close() error
}

// ErrBrowserUnavailable is returned by a Renderer that cannot start a
// browser; the fetcher falls back to plain HTTP.
var ErrBrowserUnavailable = errors.New("browser unavailable")

// Options configures a Fetcher.
type Options struct {
	// CacheDir enables the on-disk cache when non-empty.
	CacheDir     string
	CacheTTL     time.Duration
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string
	UseJS        bool
	MaxBodyBytes int64
	Renderer     Renderer
}

// DefaultUserAgent is a current desktop Chrome.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func (o *Options) defaults() {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 24 * time.Hour
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryWaitMin <= 0 {
		o.RetryWaitMin = 500 * time.Millisecond
	}
	if o.RetryWaitMax < o.RetryWaitMin {
		o.RetryWaitMax = max(5*time.Second, o.RetryWaitMin)
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 10 * 1024 * 1024
	}
}
