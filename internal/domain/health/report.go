package health

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/SourceHealth/internal/shared/id"
	"github.com/GriffinCanCode/SourceHealth/internal/shared/utils"
)

// FetchStats summarizes network fetch latency over a run. Cached pages
// are excluded.
type FetchStats struct {
	Count  int     `json:"count"`
	Cached int     `json:"cached"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// Report is the externally consumed summary of a validation run.
type Report struct {
	GeneratedAt  time.Time                `json:"generated_at"`
	RunID        id.RunID                 `json:"run_id"`
	TotalSources int                      `json:"total_sources"`
	Healthy      int                      `json:"healthy"`
	Degraded     int                      `json:"degraded"`
	Broken       int                      `json:"broken"`
	Skipped      int                      `json:"skipped"`
	FetchStats   FetchStats               `json:"fetch_stats"`
	Sources      []SourceValidationResult `json:"sources"`
}

// NewReport summarizes results.
func NewReport(results []SourceValidationResult) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC(),
		RunID:       id.NewRunID(),
		Sources:     results,
	}
	if r.Sources == nil {
		r.Sources = []SourceValidationResult{}
	}
	r.recount()
	return r
}

func (r *Report) recount() {
	r.TotalSources = len(r.Sources)
	r.Healthy, r.Degraded, r.Broken, r.Skipped = 0, 0, 0, 0
	for _, s := range r.Sources {
		switch s.OverallStatus {
		case Healthy:
			r.Healthy++
		case Degraded:
			r.Degraded++
		case Broken:
			r.Broken++
		default:
			r.Skipped++
		}
	}
	r.FetchStats = computeFetchStats(r.Sources)
}

// HasBroken reports whether any source is broken.
func (r *Report) HasBroken() bool {
	return r.Broken > 0
}

// Find returns the result for a source by name, ignoring case.
func (r *Report) Find(name string) (SourceValidationResult, bool) {
	for _, s := range r.Sources {
		if strings.EqualFold(s.SourceName, name) {
			return s, true
		}
	}
	return SourceValidationResult{}, false
}

// Upsert replaces the result for the same source, or appends it, and
// refreshes the counts.
func (r *Report) Upsert(res SourceValidationResult) {
	for i := range r.Sources {
		if r.Sources[i].SourceName == res.SourceName {
			r.Sources[i] = res
			r.recount()
			return
		}
	}
	r.Sources = append(r.Sources, res)
	r.recount()
}

func computeFetchStats(results []SourceValidationResult) FetchStats {
	var fs FetchStats
	var samples []float64
	for _, s := range results {
		for _, p := range s.Pages {
			switch {
			case p.Cached:
				fs.Cached++
			case p.Error == "":
				samples = append(samples, float64(p.ElapsedMs))
			}
		}
	}
	fs.Count = len(samples)
	if len(samples) == 0 {
		return fs
	}
	sort.Float64s(samples)
	fs.MeanMs = stat.Mean(samples, nil)
	fs.P50Ms = stat.Quantile(0.5, stat.Empirical, samples, nil)
	fs.P95Ms = stat.Quantile(0.95, stat.Empirical, samples, nil)
	return fs
}

// Write stores the report as indented JSON, atomically.
func (r *Report) Write(path string) error {
	data, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return utils.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// ReadReport loads a report written by Write.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}
