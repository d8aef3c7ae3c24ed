package health

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/scraper"
)

func TestClassify(t *testing.T) {
	spec := catalog.SelectorSpec{Name: "nameSelector", Selector: "h1", PageType: catalog.PageDetail, LineNumber: 12}
	long := strings.Repeat("x", 80)

	tests := []struct {
		name     string
		res      scraper.SelectorResult
		expected string
		status   Status
		message  string
	}{
		{"error", scraper.SelectorResult{Error: "bad selector"}, "", StatusFail, "Selector error: bad selector"},
		{"no matches", scraper.SelectorResult{Success: false}, "", StatusFail, "No matches found"},
		{"no matches with expectation", scraper.SelectorResult{}, "Title", StatusFail, "No matches found"},
		{"pass without snapshot", scraper.SelectorResult{Count: 3, Matches: []string{"a"}}, "", StatusPass, "Found 3 matches"},
		{"pass with substring", scraper.SelectorResult{Count: 1, Matches: []string{"Moonlit Blade"}}, "Moonlit", StatusPass, "Found 1 matches"},
		{"warn on mismatch", scraper.SelectorResult{Count: 1, Matches: []string{long}}, "Moon", StatusWarn, "Expected 'Moon' but got '" + long[:50] + "...'"},
		{"matched but empty values", scraper.SelectorResult{Count: 2, Matches: []string{}}, "Moon", StatusPass, "Found 2 matches"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(spec, tt.res, tt.expected)
			assert.Equal(t, tt.status, v.Status)
			assert.Equal(t, tt.message, v.Message)
			assert.Equal(t, 12, v.Line)
			assert.Equal(t, tt.res.Count, v.MatchCount)
		})
	}
}

func TestAggregate(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		c    Counts
		want Overall
	}{
		{"empty", Counts{}, Skipped},
		{"all pass", Counts{Total: 6, Passed: 6}, Healthy},
		{"exactly half failed", Counts{Total: 6, Passed: 3, Failed: 3}, Degraded},
		{"over half failed", Counts{Total: 6, Passed: 2, Failed: 4}, Broken},
		{"one failure", Counts{Total: 10, Passed: 9, Failed: 1}, Degraded},
		{"warnings under ratio", Counts{Total: 10, Passed: 8, Warnings: 2}, Healthy},
		{"warnings over ratio", Counts{Total: 10, Passed: 6, Warnings: 4}, Degraded},
		{"skips count in total", Counts{Total: 4, Failed: 2, Skipped: 2}, Degraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.Aggregate(tt.c))
		})
	}
}

func TestAggregateCustomThresholds(t *testing.T) {
	strict := Thresholds{BrokenFailRatio: 0.2, DegradedWarnRatio: 0}
	assert.Equal(t, Broken, strict.Aggregate(Counts{Total: 10, Failed: 3}))
	assert.Equal(t, Degraded, strict.Aggregate(Counts{Total: 10, Warnings: 1}))
}

func TestTally(t *testing.T) {
	c := Tally([]ValidationResult{{Status: StatusPass}, {Status: StatusFail}, {Status: StatusWarn}, {Status: StatusSkip}, {Status: StatusPass}})
	assert.Equal(t, Counts{Total: 5, Passed: 2, Failed: 1, Warnings: 1, Skipped: 1}, c)
}
