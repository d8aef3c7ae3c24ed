package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/monitoring"
)

// Fetcher retrieves page HTML over HTTP or through a headless browser,
// backed by an on-disk cache. Fetch never returns an error; failures are
// described in FetchResult.Error.
type Fetcher struct {
	opts     Options
	client   *resty.Client
	cache    *Cache
	renderer Renderer
	group    singleflight.Group
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates a fetcher. logger and metrics may be nil.
func New(opts Options, logger *zap.Logger, metrics *monitoring.Metrics) *Fetcher {
	opts.defaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		opts:     opts,
		client:   newHTTPClient(opts),
		renderer: opts.Renderer,
		logger:   logger,
		metrics:  metrics,
	}
	if opts.CacheDir != "" {
		f.cache = NewCache(opts.CacheDir, opts.CacheTTL)
	}
	return f
}

// Cache returns the page cache, or nil when caching is disabled.
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Close releases the browser, if one was started.
func (f *Fetcher) Close() error {
	if f.renderer == nil {
		return nil
	}
	return f.renderer.Close()
}

// Fetch returns the page at url. A fresh cache entry is returned without
// network access. Concurrent calls for the same URL share one request, which
// outlives the cancellation of any single caller; a cancelled caller gets a
// failed result while the others keep waiting.
func (f *Fetcher) Fetch(ctx context.Context, url string, forceJS bool) *FetchResult {
	if res, ok := f.cached(url); ok {
		return res
	}

	useJS := forceJS || f.opts.UseJS
	key := url
	if useJS {
		key = "js|" + url
	}

	if err := ctx.Err(); err != nil {
		return &FetchResult{URL: url, UsedJS: useJS, Error: fmt.Sprintf("request abandoned: %v", err)}
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		// a concurrent caller may have filled the cache meanwhile
		if res, ok := f.cached(url); ok {
			return res, nil
		}
		res := f.fetch(shared, url, useJS)
		if f.cache != nil && res.OK() && res.StatusCode == 200 {
			if err := f.cache.Put(res); err != nil {
				f.logger.Warn("cache write failed",
					zap.String("url", url),
					zap.String("key", f.cache.Key(url)),
					zap.Error(err),
				)
			}
		}
		return res, nil
	})

	select {
	case r := <-ch:
		out := *r.Val.(*FetchResult)
		return &out
	case <-ctx.Done():
		return &FetchResult{URL: url, UsedJS: useJS, Error: fmt.Sprintf("request abandoned: %v", ctx.Err())}
	}
}

func (f *Fetcher) cached(url string) (*FetchResult, bool) {
	if f.cache == nil {
		return nil, false
	}
	res, ok := f.cache.Get(url)
	if ok {
		f.metrics.RecordFetch(res.Mode(), "ok", true, 0)
		f.logger.Debug("cache hit", zap.String("url", url), zap.String("key", f.cache.Key(url)))
	}
	return res, ok
}

func (f *Fetcher) fetch(ctx context.Context, url string, useJS bool) *FetchResult {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	start := time.Now()
	var res *FetchResult
	if useJS && f.renderer != nil {
		res = f.render(ctx, url)
	}
	if res == nil {
		res = f.get(ctx, url)
	}
	res.Elapsed = elapsedSince(start)

	outcome := "ok"
	if !res.OK() {
		outcome = "error"
		f.logger.Debug("fetch failed", zap.String("url", url), zap.String("error", res.Error))
	}
	f.metrics.RecordFetch(res.Mode(), outcome, false, res.Elapsed)
	return res
}

// render returns nil when the browser cannot be started so the caller falls
// back to HTTP.
func (f *Fetcher) render(ctx context.Context, url string) *FetchResult {
	html, status, err := f.renderer.Render(ctx, url)
	if errors.Is(err, ErrBrowserUnavailable) {
		f.logger.Warn("browser unavailable, falling back to HTTP", zap.String("url", url), zap.Error(err))
		return nil
	}
	if err != nil {
		return &FetchResult{URL: url, UsedJS: true, Error: err.Error()}
	}
	if strings.TrimSpace(html) == "" {
		return &FetchResult{URL: url, UsedJS: true, StatusCode: status, Error: "empty document"}
	}
	return &FetchResult{URL: url, HTML: html, StatusCode: status, UsedJS: true, ContentType: "text/html"}
}

func (f *Fetcher) get(ctx context.Context, url string) *FetchResult {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &FetchResult{URL: url, Error: fmt.Sprintf("request failed: %v", ctxErr)}
		}
		return &FetchResult{URL: url, Error: fmt.Sprintf("request failed: %v", err)}
	}

	res := &FetchResult{
		URL:         url,
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
	}
	if res.StatusCode >= 400 {
		res.Error = fmt.Sprintf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(resp.Status()))
		return res
	}

	body := resp.Body()
	if len(body) == 0 {
		res.Error = fmt.Sprintf("empty response body (status: %d)", res.StatusCode)
		return res
	}
	if mt := mimetype.Detect(body); !isText(mt) {
		res.Error = fmt.Sprintf("unsupported content type %s", mt.String())
		return res
	}

	res.HTML = string(body)
	return res
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") || strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
