package health

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/scraper"
)

// Thresholds decide a source's overall status from its selector results.
type Thresholds struct {
	// BrokenFailRatio: broken when failed > total * ratio.
	BrokenFailRatio float64
	// DegradedWarnRatio: degraded when warned > total * ratio (or any failed).
	DegradedWarnRatio float64
}

// DefaultThresholds returns the historical 0.5 / 0.3 cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{BrokenFailRatio: 0.5, DegradedWarnRatio: 0.3}
}

const actualPreview = 50

// Classify turns an executor result into a selector check. expected is the
// snapshot sample for the selector, empty when none is recorded.
func Classify(spec catalog.SelectorSpec, res scraper.SelectorResult, expected string) ValidationResult {
	v := ValidationResult{
		Name:       spec.Name,
		Selector:   spec.Selector,
		Attribute:  spec.Attribute,
		PageType:   spec.PageType,
		Line:       spec.LineNumber,
		Expected:   expected,
		MatchCount: res.Count,
	}
	if len(res.Matches) > 0 {
		v.Actual = res.Matches[0]
	}

	switch {
	case res.Error != "":
		v.Status = StatusFail
		v.Message = "Selector error: " + res.Error
	case res.Count == 0:
		v.Status = StatusFail
		v.Message = "No matches found"
	case expected != "" && len(res.Matches) > 0 && !strings.Contains(res.Matches[0], expected):
		v.Status = StatusWarn
		v.Message = fmt.Sprintf("Expected '%s' but got '%s...'", expected, scraper.TruncateText(res.Matches[0], actualPreview))
	default:
		v.Status = StatusPass
		v.Message = fmt.Sprintf("Found %d matches", res.Count)
	}
	return v
}

// Counts tallies selector statuses.
type Counts struct {
	Total, Passed, Failed, Warnings, Skipped int
}

// Tally counts results by status.
func Tally(results []ValidationResult) Counts {
	c := Counts{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			c.Passed++
		case StatusFail:
			c.Failed++
		case StatusWarn:
			c.Warnings++
		case StatusSkip:
			c.Skipped++
		}
	}
	return c
}

// Aggregate applies the thresholds. A source with no results is skipped.
func (t Thresholds) Aggregate(c Counts) Overall {
	total := float64(c.Total)
	switch {
	case c.Total == 0:
		return Skipped
	case float64(c.Failed) > total*t.BrokenFailRatio:
		return Broken
	case c.Failed > 0 || float64(c.Warnings) > total*t.DegradedWarnRatio:
		return Degraded
	default:
		return Healthy
	}
}

func (r *SourceValidationResult) apply(t Thresholds) {
	c := Tally(r.Results)
	r.Passed, r.Failed, r.Warnings, r.Skipped = c.Passed, c.Failed, c.Warnings, c.Skipped
	r.OverallStatus = t.Aggregate(c)
}
