package health

import (
	"time"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
)

// Status is the outcome of checking one selector.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
	StatusSkip Status = "skip"
)

// Overall summarizes a source.
type Overall string

const (
	Healthy  Overall = "healthy"
	Degraded Overall = "degraded"
	Broken   Overall = "broken"
	Skipped  Overall = "skip"
)

// Fetch error messages that callers match on.
const (
	MsgNoTestURLs  = "No test URLs available"
	MsgNoSelectors = "No selectors declared"
	MsgCancelled   = "validation cancelled"
)

// ValidationResult is the check of one selector against its page.
type ValidationResult struct {
	Name       string           `json:"name"`
	Selector   string           `json:"selector"`
	Attribute  string           `json:"attribute,omitempty"`
	PageType   catalog.PageType `json:"page_type"`
	Line       int              `json:"line,omitempty"`
	Status     Status           `json:"status"`
	Expected   string           `json:"expected,omitempty"`
	Actual     string           `json:"actual,omitempty"`
	MatchCount int              `json:"match_count"`
	Message    string           `json:"message"`
}

// PageFetch records how one test page was obtained.
type PageFetch struct {
	Key        string `json:"key"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	UsedJS     bool   `json:"used_js"`
	Cached     bool   `json:"cached"`
	Error      string `json:"error,omitempty"`
}

// SourceValidationResult aggregates every selector check of one source.
type SourceValidationResult struct {
	SourceName     string             `json:"source_name"`
	BaseURL        string             `json:"base_url"`
	Lang           string             `json:"lang"`
	FilePath       string             `json:"file_path,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	OverallStatus  Overall            `json:"overall_status"`
	Results        []ValidationResult `json:"results"`
	FetchErrors    []string           `json:"fetch_errors"`
	TotalSelectors int                `json:"total_selectors"`
	Passed         int                `json:"passed"`
	Failed         int                `json:"failed"`
	Warnings       int                `json:"warnings"`
	Skipped        int                `json:"skipped"`
	Pages          []PageFetch        `json:"pages,omitempty"`
	DurationMs     int64              `json:"duration_ms"`
}

// Failures returns the results that need repair: failed and warned
// selectors, in declaration order.
func (r *SourceValidationResult) Failures() []ValidationResult {
	var out []ValidationResult
	for _, v := range r.Results {
		if v.Status == StatusFail || v.Status == StatusWarn {
			out = append(out, v)
		}
	}
	return out
}

// Result returns the check for a selector declared at line, falling back
// to the first check with that name and page type.
func (r *SourceValidationResult) Result(pt catalog.PageType, name string, line int) (ValidationResult, bool) {
	var fallback *ValidationResult
	for i := range r.Results {
		v := &r.Results[i]
		if v.Name != name || v.PageType != pt {
			continue
		}
		if line == 0 || v.Line == line {
			return *v, true
		}
		if fallback == nil {
			fallback = v
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ValidationResult{}, false
}

func newSourceResult(def *catalog.SourceDefinition) SourceValidationResult {
	return SourceValidationResult{
		SourceName:     def.Name,
		BaseURL:        def.BaseURL,
		Lang:           def.Lang,
		FilePath:       def.FilePath,
		Timestamp:      time.Now().UTC(),
		Results:        []ValidationResult{},
		FetchErrors:    []string{},
		TotalSelectors: len(def.Selectors),
	}
}

// skip returns a result that evaluated no selectors.
func skip(def *catalog.SourceDefinition, reasons ...string) SourceValidationResult {
	res := newSourceResult(def)
	res.OverallStatus = Skipped
	res.FetchErrors = append(res.FetchErrors, reasons...)
	return res
}
