package repair

import (
	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
)

// Failure is one unhealthy selector together with the page it ran on.
type Failure struct {
	Spec catalog.SelectorSpec
	// HTML is the page the selector failed on; empty when it was not fetched.
	HTML string
	// Expected is the snapshot sample, empty when none is recorded.
	Expected string
}

// RepairSuggestion is a candidate replacement for one selector.
type RepairSuggestion struct {
	Name        string           `json:"name"`
	PageType    catalog.PageType `json:"page_type"`
	Line        int              `json:"line"`
	Original    string           `json:"original_selector"`
	Suggested   string           `json:"suggested_selector"`
	Confidence  float64          `json:"confidence"`
	Explanation string           `json:"explanation"`
	TokensUsed  int              `json:"tokens_used"`
	Provider    string           `json:"provider"`
	State       State            `json:"state"`

	spec catalog.SelectorSpec
}

// Spec returns the selector the suggestion replaces.
func (s RepairSuggestion) Spec() catalog.SelectorSpec {
	return s.spec
}

// HasSuggestion reports whether a replacement was proposed.
func (s RepairSuggestion) HasSuggestion() bool {
	return s.Suggested != ""
}

// SourceRepair collects the suggestions made for one source.
type SourceRepair struct {
	Source      string             `json:"source"`
	Provider    string             `json:"provider"`
	Suggestions []RepairSuggestion `json:"suggestions"`
	Requests    int                `json:"requests"`
	TokensUsed  int                `json:"tokens_used"`
}

// Propose builds a suggestion for spec by hand, outside the advisor.
func Propose(spec catalog.SelectorSpec, selector string, confidence float64, explanation string) RepairSuggestion {
	return RepairSuggestion{
		Name:        spec.Name,
		PageType:    spec.PageType,
		Line:        spec.LineNumber,
		Original:    spec.Selector,
		Suggested:   selector,
		Confidence:  clamp(confidence),
		Explanation: explanation,
		Provider:    "manual",
		State:       StateSuggested,
		spec:        spec,
	}
}
