package suggest

import (
	"context"
	"fmt"
	"regexp"

	"github.com/bytedance/sonic"
)

// HeuristicConfidence is the fixed confidence of a rule-based rewrite.
const HeuristicConfidence = 0.5

const heuristicExplanation = "Mock suggestion based on common patterns"

type rewriteRule struct {
	pattern *regexp.Regexp
	rewrite func(m []string) string
}

// Rules are tried in order; the first that matches the start of the
// selector rewrites the matched prefix and keeps the remainder.
var rewriteRules = []rewriteRule{
	{regexp.MustCompile(`^\.(\w+)-item`), func(m []string) string { return "." + m[1] + "-card" }},
	{regexp.MustCompile(`^\.(\w+)-title`), func(m []string) string { return "." + m[1] + "-name" }},
	{regexp.MustCompile(`^#(\w+)`), func(m []string) string { return "." + m[1] }},
	{regexp.MustCompile(`^(\w+)$`), func(m []string) string { return "div.content " + m[1] }},
}

// Heuristic rewrites common markup drift offline. It never fails and
// answers in the same JSON shape a model is asked for.
type Heuristic struct{}

// NewHeuristic returns the offline provider.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Name implements Provider.
func (Heuristic) Name() string { return NameHeuristic }

type suggestionJSON struct {
	Selector    string  `json:"selector"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Suggest implements Provider.
func (Heuristic) Suggest(ctx context.Context, req Request) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := suggestionJSON{Explanation: "No heuristic rule matches " + req.Selector}
	if rewritten, ok := Rewrite(req.Selector); ok {
		out = suggestionJSON{Selector: rewritten, Confidence: HeuristicConfidence, Explanation: heuristicExplanation}
	}
	text, err := sonic.MarshalString(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode heuristic reply: %w", err)
	}
	return &Reply{Text: text}, nil
}

// Rewrite applies the first matching rule to selector.
func Rewrite(selector string) (string, bool) {
	for _, rule := range rewriteRules {
		loc := rule.pattern.FindStringSubmatchIndex(selector)
		if loc == nil {
			continue
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = selector[loc[2*i]:loc[2*i+1]]
			}
		}
		return rule.rewrite(m) + selector[loc[1]:], true
	}
	return "", false
}
