package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/fetcher"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/scraper"
)

// Options configures a Validator.
type Options struct {
	Thresholds    Thresholds
	SelectorLimit int
	// UseJS renders every page in the browser.
	UseJS   bool
	Limiter *HostLimiter
}

// Validator checks a source's selectors against its live test pages.
type Validator struct {
	fetcher fetcher.PageFetcher
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewValidator creates a validator. logger and metrics may be nil.
func NewValidator(pf fetcher.PageFetcher, opts Options, logger *zap.Logger, metrics *monitoring.Metrics) *Validator {
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.SelectorLimit <= 0 {
		opts.SelectorLimit = scraper.DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{fetcher: pf, opts: opts, logger: logger, metrics: metrics}
}

// Thresholds returns the status cut-offs in use.
func (v *Validator) Thresholds() Thresholds {
	return v.opts.Thresholds
}

// Validate checks every selector of def. snap may be nil.
func (v *Validator) Validate(ctx context.Context, def *catalog.SourceDefinition, snap *snapshot.Snapshot) SourceValidationResult {
	res, _ := v.Inspect(ctx, def, snap)
	return res
}

// Inspect is Validate that also returns the fetched pages, so repair can
// reuse them without refetching.
func (v *Validator) Inspect(ctx context.Context, def *catalog.SourceDefinition, snap *snapshot.Snapshot) (SourceValidationResult, *Pages) {
	start := time.Now()
	res, pages := v.inspect(ctx, def, snap)
	res.DurationMs = time.Since(start).Milliseconds()

	v.metrics.RecordSource(string(res.OverallStatus), time.Since(start))
	v.logger.Info("source validated",
		zap.String("source", def.Name),
		zap.String("status", string(res.OverallStatus)),
		zap.Int("passed", res.Passed),
		zap.Int("failed", res.Failed),
		zap.Int("warnings", res.Warnings),
		zap.Int("fetch_errors", len(res.FetchErrors)),
	)
	return res, pages
}

func (v *Validator) inspect(ctx context.Context, def *catalog.SourceDefinition, snap *snapshot.Snapshot) (SourceValidationResult, *Pages) {
	if len(def.Selectors) == 0 {
		return skip(def, MsgNoSelectors), nil
	}

	urls := ResolveTestURLs(def, snap)
	if len(urls) == 0 {
		return skip(def, MsgNoTestURLs), nil
	}

	res := newSourceResult(def)
	pages := v.fetchPages(ctx, urls, snap, &res)
	if pages.Len() == 0 {
		res.OverallStatus = Skipped
		return res, pages
	}

	parsed := map[string]*scraper.Page{}
	parseErrs := map[string]error{}
	for _, spec := range def.Selectors {
		key, html, ok := pages.For(spec.PageType)
		if !ok {
			res.Results = append(res.Results, ValidationResult{
				Name:      spec.Name,
				Selector:  spec.Selector,
				Attribute: spec.Attribute,
				PageType:  spec.PageType,
				Line:      spec.LineNumber,
				Status:    StatusSkip,
				Message:   "No page available for validation",
			})
			continue
		}

		page, seen := parsed[key]
		if !seen && parseErrs[key] == nil {
			p, err := scraper.ParsePage(html)
			if err != nil {
				parseErrs[key] = err
			} else {
				parsed[key], page = p, p
			}
		}

		var sel scraper.SelectorResult
		if err := parseErrs[key]; err != nil {
			sel = scraper.SelectorResult{Selector: spec.Selector, Attribute: spec.Attribute, Error: err.Error()}
		} else {
			sel = page.Select(spec.Selector, spec.Attribute, v.opts.SelectorLimit)
		}

		expected, _ := snap.Expected(spec.PageType, spec.Name)
		check := Classify(spec, sel, expected)
		v.metrics.RecordSelector(string(check.Status))
		res.Results = append(res.Results, check)
	}

	res.apply(v.opts.Thresholds)
	return res, pages
}

// fetchPages fetches each distinct URL once, concurrently, and records a
// PageFetch per page key in key order.
func (v *Validator) fetchPages(ctx context.Context, urls TestURLs, snap *snapshot.Snapshot, res *SourceValidationResult) *Pages {
	pages := newPages(urls)
	forceJS := v.opts.UseJS || snap.NeedsScript()
	interval := snap.RequestInterval()

	var distinct []string
	seen := map[string]bool{}
	for _, key := range pages.order {
		if u := urls[key]; !seen[u] {
			seen[u] = true
			distinct = append(distinct, u)
		}
	}

	var mu sync.Mutex
	fetched := make(map[string]*fetcher.FetchResult, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range distinct {
		g.Go(func() error {
			var fr *fetcher.FetchResult
			if err := v.opts.Limiter.Wait(gctx, u, interval); err != nil {
				fr = &fetcher.FetchResult{URL: u, Error: MsgCancelled}
			} else {
				fr = v.fetcher.Fetch(gctx, u, forceJS)
			}
			mu.Lock()
			fetched[u] = fr
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, key := range pages.order {
		fr := fetched[urls[key]]
		res.Pages = append(res.Pages, PageFetch{
			Key:        key,
			URL:        fr.URL,
			StatusCode: fr.StatusCode,
			ElapsedMs:  fr.Elapsed.Milliseconds(),
			UsedJS:     fr.UsedJS,
			Cached:     fr.Cached,
			Error:      fr.Error,
		})
		if !fr.OK() {
			res.FetchErrors = append(res.FetchErrors, fmt.Sprintf("%s: %s", key, fr.Error))
			continue
		}
		pages.HTML[key] = fr.HTML
	}
	return pages
}
