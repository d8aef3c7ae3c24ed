package repair

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SourceHealth/internal/shared/utils"
)

// BackupSuffix is appended to a source file's path for its backup.
const BackupSuffix = ".bak"

// Outcome is what happened to one suggestion.
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeLowConfidence Outcome = "skipped_low_confidence"
	OutcomeNoSuggestion  Outcome = "no_suggestion"
	OutcomeInvalid       Outcome = "invalid"
	OutcomeDeclined      Outcome = "declined"
	OutcomeNotFound      Outcome = "not_found"
)

// FixOutcome reports one suggestion.
type FixOutcome struct {
	Name          string           `json:"name"`
	PageType      catalog.PageType `json:"page_type"`
	Line          int              `json:"line"`
	Original      string           `json:"original_selector"`
	Suggested     string           `json:"suggested_selector,omitempty"`
	Confidence    float64          `json:"confidence"`
	Outcome       Outcome          `json:"outcome"`
	Substitutions int              `json:"substitutions"`
	StillFailing  bool             `json:"still_failing,omitempty"`
}

// ApplyReport summarizes one ApplyFixes call.
type ApplyReport struct {
	Path         string                         `json:"path"`
	BackupPath   string                         `json:"backup_path"`
	Applied      int                            `json:"applied"`
	Outcomes     []FixOutcome                   `json:"outcomes"`
	Revalidated  *health.SourceValidationResult `json:"revalidated,omitempty"`
	StillFailing int                            `json:"still_failing"`
}

// Repairer edits source files.
type Repairer struct {
	// Confirm, when set, is asked about every proposed selector; its answer
	// replaces the confidence threshold.
	Confirm func(RepairSuggestion) bool
	// Revalidate, when set, runs after a successful write and returns the
	// fresh validation of the rewritten source.
	Revalidate func(ctx context.Context, path string) (*health.SourceValidationResult, error)

	logger  *zap.Logger
	metrics *monitoring.Metrics
	locks   *pathLocks
}

// NewRepairer creates a repairer. Copies of the returned value share its
// file locks.
func NewRepairer(logger *zap.Logger, metrics *monitoring.Metrics) *Repairer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repairer{logger: logger, metrics: metrics, locks: &pathLocks{}}
}

// ApplyFixes writes eligible suggestions into def's source file. A
// byte-identical backup is written first, even when nothing applies; the
// file itself is rewritten only when at least one substitution was made.
// The returned error covers file I/O only.
func (r *Repairer) ApplyFixes(ctx context.Context, def *catalog.SourceDefinition, suggestions []RepairSuggestion, threshold float64) (ApplyReport, error) {
	path := def.FilePath
	report := ApplyReport{Path: path, BackupPath: path + BackupSuffix, Outcomes: make([]FixOutcome, 0, len(suggestions))}

	unlock := r.locks.lock(path)
	defer unlock()

	info, err := os.Stat(path)
	if err != nil {
		return report, fmt.Errorf("source file not found: %w", err)
	}
	if err := utils.CopyFile(path, report.BackupPath); err != nil {
		return report, fmt.Errorf("failed to back up %s: %w", path, err)
	}
	r.logger.Info("backup created", zap.String("path", report.BackupPath))

	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read %s: %w", path, err)
	}
	content := string(data)

	for _, s := range suggestions {
		outcome := FixOutcome{
			Name:       s.Name,
			PageType:   s.PageType,
			Line:       s.Line,
			Original:   s.Original,
			Suggested:  s.Suggested,
			Confidence: s.Confidence,
			Outcome:    r.eligibility(s, threshold),
		}
		if outcome.Outcome == OutcomeApplied {
			content, outcome.Substitutions = substitute(content, s.spec, s.Suggested)
			if outcome.Substitutions == 0 {
				outcome.Outcome = OutcomeNotFound
				r.logger.Warn("selector not found verbatim",
					zap.String("path", path),
					zap.String("name", s.Name),
					zap.String("selector", s.Original),
				)
			} else {
				report.Applied++
			}
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if report.Applied == 0 {
		r.logger.Info("no fixes applied", zap.String("path", path))
		return report, nil
	}
	if err := utils.WriteFileAtomic(path, []byte(content), info.Mode().Perm()); err != nil {
		return report, fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.metrics.AddFixesApplied(report.Applied)
	r.logger.Info("fixes applied", zap.String("path", path), zap.Int("applied", report.Applied))

	r.revalidate(ctx, &report)
	return report, nil
}

func (r *Repairer) eligibility(s RepairSuggestion, threshold float64) Outcome {
	switch {
	case !s.HasSuggestion():
		return OutcomeNoSuggestion
	case strings.ContainsAny(s.Suggested, "\r\n"):
		return OutcomeInvalid
	case r.Confirm != nil:
		if r.Confirm(s) {
			return OutcomeApplied
		}
		return OutcomeDeclined
	case s.Confidence < threshold:
		return OutcomeLowConfidence
	default:
		return OutcomeApplied
	}
}

func (r *Repairer) revalidate(ctx context.Context, report *ApplyReport) {
	if r.Revalidate == nil {
		return
	}
	res, err := r.Revalidate(ctx, report.Path)
	if err != nil {
		r.logger.Warn("revalidation failed", zap.String("path", report.Path), zap.Error(err))
		return
	}
	report.Revalidated = res

	for i := range report.Outcomes {
		o := &report.Outcomes[i]
		if o.Outcome != OutcomeApplied {
			continue
		}
		v, ok := res.Result(o.PageType, o.Name, o.Line)
		if ok && (v.Status == health.StatusFail || v.Status == health.StatusWarn) {
			o.StillFailing = true
			report.StillFailing++
			r.logger.Warn("applied fix still failing",
				zap.String("name", o.Name),
				zap.String("selector", o.Suggested),
				zap.String("message", v.Message),
			)
		}
	}
}

var literalEscapes = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)

// EscapeLiteral renders selector as the body of a Kotlin string literal.
func EscapeLiteral(selector string) string {
	return literalEscapes.Replace(selector)
}

// substitute replaces spec's literal with selector, first on spec's line
// and otherwise anywhere in content. It returns the number of replacements.
func substitute(content string, spec catalog.SelectorSpec, selector string) (string, int) {
	literal := spec.Literal
	if literal == "" {
		literal = EscapeLiteral(spec.Selector)
	}
	re := regexp.MustCompile(`(\b` + regexp.QuoteMeta(spec.Name) + `\s*=\s*")` + regexp.QuoteMeta(literal) + `(")`)
	replacement := EscapeLiteral(selector)

	replace := func(s string) (string, int) {
		n := len(re.FindAllStringIndex(s, -1))
		if n == 0 {
			return s, 0
		}
		return re.ReplaceAllStringFunc(s, func(m string) string {
			g := re.FindStringSubmatch(m)
			return g[1] + replacement + g[2]
		}), n
	}

	if start, end, ok := lineBounds(content, spec.LineNumber); ok {
		if line, n := replace(content[start:end]); n > 0 {
			return content[:start] + line + content[end:], n
		}
	}
	return replace(content)
}

// lineBounds returns the byte range of the 1-based line n.
func lineBounds(content string, n int) (int, int, bool) {
	if n <= 0 {
		return 0, 0, false
	}
	start := 0
	for i := 1; i < n; i++ {
		next := strings.IndexByte(content[start:], '\n')
		if next < 0 {
			return 0, 0, false
		}
		start += next + 1
	}
	end := strings.IndexByte(content[start:], '\n')
	if end < 0 {
		return start, len(content), true
	}
	return start, start + end, true
}
