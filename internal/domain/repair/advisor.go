package repair

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/scraper"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/suggest"
)

// AdvisorOptions bounds the cost of repair requests.
type AdvisorOptions struct {
	ContextChars         int
	PromptHTMLChars      int
	MaxRequestsPerSource int
	TokenBudget          int
}

func (o *AdvisorOptions) defaults() {
	if o.ContextChars <= 0 {
		o.ContextChars = scraper.DefaultContextChars
	}
	if o.PromptHTMLChars <= 0 {
		o.PromptHTMLChars = DefaultPromptHTMLChars
	}
	if o.MaxRequestsPerSource <= 0 {
		o.MaxRequestsPerSource = 20
	}
	if o.TokenBudget <= 0 {
		o.TokenBudget = 20000
	}
}

// Advisor asks a provider for replacement selectors.
type Advisor struct {
	provider suggest.Provider
	opts     AdvisorOptions
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewAdvisor creates an advisor over provider.
func NewAdvisor(provider suggest.Provider, opts AdvisorOptions, logger *zap.Logger, metrics *monitoring.Metrics) *Advisor {
	opts.defaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil {
		provider = suggest.NewUnavailable("no provider")
	}
	return &Advisor{provider: provider, opts: opts, logger: logger, metrics: metrics}
}

// Provider returns the name of the configured provider.
func (a *Advisor) Provider() string {
	return a.provider.Name()
}

// Repair proposes a replacement for spec, which failed on html. It makes at
// most one provider call and never fails: problems are reported in the
// explanation with zero confidence.
func (a *Advisor) Repair(ctx context.Context, spec catalog.SelectorSpec, html, expected string) RepairSuggestion {
	out, m := a.begin(spec)
	prompt, ok := a.extract(&out, m, html, expected)
	if !ok {
		return out
	}
	return a.request(ctx, out, m, prompt, expected)
}

// RepairSource handles the failures of one source in order, stopping
// requests once the per-source request limit or token budget is reached.
// Failures past the budget are returned as failed suggestions.
func (a *Advisor) RepairSource(ctx context.Context, source string, failures []Failure) SourceRepair {
	report := SourceRepair{Source: source, Provider: a.provider.Name(), Suggestions: make([]RepairSuggestion, 0, len(failures))}
	estimated := 0

	for _, f := range failures {
		out, m := a.begin(f.Spec)
		switch {
		case ctx.Err() != nil:
			a.fail(&out, m, "repair cancelled")
			a.record(out, "cancelled")
		case report.Requests >= a.opts.MaxRequestsPerSource:
			a.fail(&out, m, fmt.Sprintf("request limit of %d per source reached", a.opts.MaxRequestsPerSource))
			a.record(out, "budget")
		}
		if out.State.Terminal() {
			report.Suggestions = append(report.Suggestions, out)
			continue
		}

		prompt, ok := a.extract(&out, m, f.HTML, f.Expected)
		if !ok {
			report.Suggestions = append(report.Suggestions, out)
			continue
		}
		cost := EstimateTokens(prompt)
		if estimated+cost > a.opts.TokenBudget {
			a.fail(&out, m, fmt.Sprintf("token budget of %d exhausted", a.opts.TokenBudget))
			a.record(out, "budget")
			report.Suggestions = append(report.Suggestions, out)
			continue
		}

		estimated += cost
		report.Requests++
		out = a.request(ctx, out, m, prompt, f.Expected)
		report.TokensUsed += out.TokensUsed
		report.Suggestions = append(report.Suggestions, out)
	}

	a.logger.Info("source repair suggested",
		zap.String("source", source),
		zap.String("provider", report.Provider),
		zap.Int("failures", len(failures)),
		zap.Int("requests", report.Requests),
		zap.Int("tokens", report.TokensUsed),
	)
	return report
}

func (a *Advisor) begin(spec catalog.SelectorSpec) (RepairSuggestion, *machine) {
	m := newMachine()
	return RepairSuggestion{
		Name:     spec.Name,
		PageType: spec.PageType,
		Line:     spec.LineNumber,
		Original: spec.Selector,
		Provider: a.provider.Name(),
		State:    m.state,
		spec:     spec,
	}, m
}

func (a *Advisor) extract(out *RepairSuggestion, m *machine, html, expected string) (string, bool) {
	if strings.TrimSpace(html) == "" {
		a.fail(out, m, "no page HTML available for "+out.Name)
		a.record(*out, "no_context")
		return "", false
	}
	fragment := scraper.ExtractContext(html, out.Original, a.opts.ContextChars)
	a.step(out, m, StateContextExtracted)
	return BuildPrompt(out.spec, fragment, expected, a.opts.PromptHTMLChars), true
}

func (a *Advisor) request(ctx context.Context, out RepairSuggestion, m *machine, prompt, expected string) RepairSuggestion {
	a.step(&out, m, StateSuggestionRequested)

	reply, err := a.call(ctx, suggest.Request{
		Prompt:       prompt,
		Selector:     out.Original,
		SelectorName: out.Name,
		PageType:     string(out.PageType),
		Expected:     expected,
	})
	if reply != nil {
		out.TokensUsed = reply.TokensUsed
	}
	if err != nil {
		a.fail(&out, m, "Error: "+err.Error())
		a.record(out, "error")
		return out
	}

	parsed, err := ParseReply(reply.Text)
	switch {
	case err != nil:
		a.fail(&out, m, err.Error())
		a.record(out, "unparsable")
		return out
	case parsed.Selector == "":
		reason := parsed.Explanation
		if reason == "" {
			reason = "provider proposed no selector"
		}
		a.fail(&out, m, reason)
		a.record(out, "empty")
		return out
	case parsed.Selector == out.Original:
		a.fail(&out, m, "provider returned the current selector unchanged")
		a.record(out, "empty")
		return out
	}

	out.Suggested = parsed.Selector
	out.Confidence = parsed.Confidence
	out.Explanation = parsed.Explanation
	a.step(&out, m, StateSuggested)
	a.record(out, "suggested")
	a.logger.Debug("selector suggested",
		zap.String("name", out.Name),
		zap.String("original", out.Original),
		zap.String("suggested", out.Suggested),
		zap.Float64("confidence", out.Confidence),
	)
	return out
}

// call invokes the provider, turning a panic into an error.
func (a *Advisor) call(ctx context.Context, req suggest.Request) (reply *suggest.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply, err = nil, fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return a.provider.Suggest(ctx, req)
}

func (a *Advisor) step(out *RepairSuggestion, m *machine, to State) {
	if err := m.advance(to); err != nil {
		a.logger.Error("repair state", zap.String("name", out.Name), zap.Error(err))
		return
	}
	out.State = m.state
}

func (a *Advisor) fail(out *RepairSuggestion, m *machine, reason string) {
	out.Suggested = ""
	out.Confidence = 0
	out.Explanation = reason
	a.step(out, m, StateSuggestionFailed)
}

func (a *Advisor) record(out RepairSuggestion, outcome string) {
	a.metrics.RecordSuggestion(out.Provider, outcome, out.TokensUsed)
}

// CollectFailures pairs the failed and warned results of res with their
// selector rules and the pages they ran on.
func CollectFailures(def *catalog.SourceDefinition, res health.SourceValidationResult, pages *health.Pages) []Failure {
	var failures []Failure
	for _, r := range res.Failures() {
		spec, ok := lookup(def, r)
		if !ok {
			continue
		}
		_, html, _ := pages.For(spec.PageType)
		failures = append(failures, Failure{Spec: spec, HTML: html, Expected: r.Expected})
	}
	return failures
}

func lookup(def *catalog.SourceDefinition, r health.ValidationResult) (catalog.SelectorSpec, bool) {
	for _, s := range def.Selectors {
		if s.Name == r.Name && s.PageType == r.PageType && s.LineNumber == r.Line {
			return s, true
		}
	}
	return def.Find(r.PageType, r.Name)
}
