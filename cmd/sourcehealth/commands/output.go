package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/repair"
)

var statusIcon = map[health.Overall]string{
	health.Healthy:  "✓",
	health.Degraded: "⚠",
	health.Broken:   "✗",
	health.Skipped:  "○",
}

func colorStatus(s health.Overall) string {
	label := strings.ToUpper(string(s))
	switch s {
	case health.Healthy:
		return pterm.Green(label)
	case health.Degraded:
		return pterm.Yellow(label)
	case health.Broken:
		return pterm.Red(label)
	default:
		return pterm.Gray(label)
	}
}

func colorSelector(s health.Status) string {
	switch s {
	case health.StatusPass:
		return pterm.Green(string(s))
	case health.StatusWarn:
		return pterm.Yellow(string(s))
	case health.StatusFail:
		return pterm.Red(string(s))
	default:
		return pterm.Gray(string(s))
	}
}

// progress prints one line per finished source. Pool workers call it
// concurrently.
type progress struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *progress) source(r health.SourceValidationResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s %-28s %s  %d/%d passed",
		statusIcon[r.OverallStatus], r.SourceName, colorStatus(r.OverallStatus), r.Passed, r.TotalSelectors)
	if r.Warnings > 0 {
		fmt.Fprintf(p.out, ", %s", pterm.Yellow(strconv.Itoa(r.Warnings)+" warn"))
	}
	if r.Failed > 0 {
		fmt.Fprintf(p.out, ", %s", pterm.Red(strconv.Itoa(r.Failed)+" fail"))
	}
	if len(r.FetchErrors) > 0 {
		fmt.Fprintf(p.out, "  %s", pterm.Gray(r.FetchErrors[0]))
	}
	fmt.Fprintln(p.out)
}

func renderSummary(out io.Writer, report *health.Report) error {
	data := pterm.TableData{
		{"Total", "Healthy", "Degraded", "Broken", "Skipped", "Fetches", "Cached", "p50 ms", "p95 ms"},
		{
			strconv.Itoa(report.TotalSources),
			pterm.Green(strconv.Itoa(report.Healthy)),
			pterm.Yellow(strconv.Itoa(report.Degraded)),
			pterm.Red(strconv.Itoa(report.Broken)),
			pterm.Gray(strconv.Itoa(report.Skipped)),
			strconv.Itoa(report.FetchStats.Count),
			strconv.Itoa(report.FetchStats.Cached),
			fmt.Sprintf("%.0f", report.FetchStats.P50Ms),
			fmt.Sprintf("%.0f", report.FetchStats.P95Ms),
		},
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithWriter(out).WithData(data).Render()
}

func renderFailures(out io.Writer, r health.SourceValidationResult) error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	data := pterm.TableData{{"Status", "Page", "Name", "Selector", "Line", "Message"}}
	for _, v := range failures {
		line := ""
		if v.Line > 0 {
			line = strconv.Itoa(v.Line)
		}
		data = append(data, []string{colorSelector(v.Status), string(v.PageType), v.Name, v.Selector, line, v.Message})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()
}

func renderSuggestions(out io.Writer, suggestions []repair.RepairSuggestion) error {
	data := pterm.TableData{{"Name", "Page", "Original", "Suggested", "Confidence", "Explanation"}}
	for _, s := range suggestions {
		suggested := s.Suggested
		if suggested == "" {
			suggested = pterm.Gray("-")
		}
		data = append(data, []string{
			s.Name,
			string(s.PageType),
			s.Original,
			suggested,
			fmt.Sprintf("%.0f%%", s.Confidence*100),
			s.Explanation,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()
}

func renderOutcomes(out io.Writer, outcomes []repair.FixOutcome) error {
	data := pterm.TableData{{"Name", "Page", "Outcome", "Suggested", "Substitutions"}}
	for _, o := range outcomes {
		outcome := string(o.Outcome)
		switch {
		case o.Outcome == repair.OutcomeApplied && o.StillFailing:
			outcome = pterm.Yellow(outcome + " (still failing)")
		case o.Outcome == repair.OutcomeApplied:
			outcome = pterm.Green(outcome)
		case o.Outcome == repair.OutcomeNotFound || o.Outcome == repair.OutcomeInvalid:
			outcome = pterm.Red(outcome)
		default:
			outcome = pterm.Gray(outcome)
		}
		data = append(data, []string{o.Name, string(o.PageType), outcome, o.Suggested, strconv.Itoa(o.Substitutions)})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()
}
