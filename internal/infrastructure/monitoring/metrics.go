package monitoring

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for one pipeline process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Fetch metrics
	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	CacheHits     prometheus.Counter

	// Validation metrics
	SelectorResults *prometheus.CounterVec
	SourceResults   *prometheus.CounterVec
	SourceDuration  prometheus.Histogram

	// Repair metrics
	Suggestions      *prometheus.CounterVec
	SuggestionTokens *prometheus.CounterVec
	FixesApplied     prometheus.Counter

	// Dashboard metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates collectors on a private registry, so several
// pipelines (or tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcehealth_fetches_total",
				Help: "Page fetches by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		FetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sourcehealth_fetch_duration_seconds",
				Help:    "Network fetch duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
		CacheHits: f.NewCounter(
			prometheus.CounterOpts{
				Name: "sourcehealth_fetch_cache_hits_total",
				Help: "Fetches served from the on-disk cache",
			},
		),

		SelectorResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcehealth_selector_results_total",
				Help: "Selector checks by status",
			},
			[]string{"status"},
		),
		SourceResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcehealth_source_results_total",
				Help: "Validated sources by overall status",
			},
			[]string{"status"},
		),
		SourceDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sourcehealth_source_validation_seconds",
				Help:    "Wall time to validate one source",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),

		Suggestions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcehealth_suggestions_total",
				Help: "Repair suggestions by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		SuggestionTokens: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcehealth_suggestion_tokens_total",
				Help: "Tokens reported by suggestion providers",
			},
			[]string{"provider"},
		),
		FixesApplied: f.NewCounter(
			prometheus.CounterOpts{
				Name: "sourcehealth_fixes_applied_total",
				Help: "Selector substitutions written back to source files",
			},
		),

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcehealth_http_requests_total",
				Help: "Dashboard HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sourcehealth_http_request_duration_seconds",
				Help:    "Dashboard HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
	}
}

// RecordFetch records one page fetch. Cache hits are counted separately
// and do not feed the latency histogram.
func (m *Metrics) RecordFetch(mode, outcome string, cached bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	if cached {
		m.CacheHits.Inc()
		m.FetchesTotal.WithLabelValues(mode, "cached").Inc()
		return
	}
	m.FetchesTotal.WithLabelValues(mode, outcome).Inc()
	m.FetchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// RecordSelector counts one selector classification.
func (m *Metrics) RecordSelector(status string) {
	if m == nil {
		return
	}
	m.SelectorResults.WithLabelValues(status).Inc()
}

// RecordSource counts one source verdict.
func (m *Metrics) RecordSource(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SourceResults.WithLabelValues(status).Inc()
	m.SourceDuration.Observe(elapsed.Seconds())
}

// RecordSuggestion counts one advisor round trip.
func (m *Metrics) RecordSuggestion(provider, outcome string, tokens int) {
	if m == nil {
		return
	}
	m.Suggestions.WithLabelValues(provider, outcome).Inc()
	if tokens > 0 {
		m.SuggestionTokens.WithLabelValues(provider).Add(float64(tokens))
	}
}

// AddFixesApplied counts substitutions written to disk.
func (m *Metrics) AddFixesApplied(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FixesApplied.Add(float64(n))
}

// RecordHTTPRequest records dashboard HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path in the node-exporter textfile
// format. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
