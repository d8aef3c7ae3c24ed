package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/repair"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/config"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/fetcher"
	"github.com/GriffinCanCode/SourceHealth/internal/providers/suggest"
)

// Manager owns every pipeline stage built from one configuration.
type Manager struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	parser    *catalog.Parser
	catalog   *catalog.Catalog
	snapshots *snapshot.Store
	fetcher   *fetcher.Fetcher
	validator *health.Validator
	pool      *health.Pool
	generator *health.Generator
	advisor   *repair.Advisor
	repairer  *repair.Repairer
}

// NewManager wires the pipeline. logger may be nil; metrics are always
// collected on a private registry.
func NewManager(cfg *config.Config, logger *logging.Logger) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	metrics := monitoring.NewMetrics()

	m := &Manager{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracing.New("sourcehealth", logger.Component("trace")),
	}

	m.parser = catalog.NewParser(cfg.Workspace.DefaultLang, logger.Component("catalog"))
	m.catalog = catalog.NewCatalog(cfg.Workspace.SourcesPath(), m.parser, logger.Component("catalog"))
	m.snapshots = snapshot.NewStore(cfg.Workspace.SnapshotsPath(), logger.Component("snapshot"))

	m.fetcher = fetcher.New(fetcher.Options{
		CacheDir:     cfg.CacheDir(),
		CacheTTL:     cfg.Fetch.CacheTTL.Std(),
		Timeout:      cfg.Fetch.Timeout.Std(),
		Retries:      cfg.Fetch.Retries,
		UserAgent:    cfg.Fetch.UserAgent,
		UseJS:        cfg.Fetch.UseJS,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		// the browser starts on first use only
		Renderer: fetcher.NewRodRenderer(cfg.Fetch.BrowserURL, cfg.Fetch.UserAgent, cfg.Fetch.IdleWait.Std(), logger.Component("browser")),
	}, logger.Component("fetcher"), metrics)

	m.validator = health.NewValidator(m.fetcher, health.Options{
		Thresholds: health.Thresholds{
			BrokenFailRatio:   cfg.Validation.BrokenFailRatio,
			DegradedWarnRatio: cfg.Validation.DegradedWarnRatio,
		},
		SelectorLimit: cfg.Validation.SelectorLimit,
		UseJS:         cfg.Fetch.UseJS,
		Limiter:       health.NewHostLimiter(time.Duration(cfg.Validation.RateLimitMillis) * time.Millisecond),
	}, logger.Component("validator"), metrics)
	m.pool = health.NewPool(m.validator, m.snapshots, cfg.Validation.Workers, logger.Component("pool"))
	m.generator = health.NewGenerator(m.validator, logger.Component("snapshot"))

	provider := suggest.New(SuggestConfig(cfg))
	m.advisor = repair.NewAdvisor(provider, repair.AdvisorOptions{
		ContextChars:         cfg.Repair.ContextChars,
		PromptHTMLChars:      cfg.Repair.PromptHTMLChars,
		MaxRequestsPerSource: cfg.Repair.MaxRequestsPerSource,
		TokenBudget:          cfg.Repair.TokenBudget,
	}, logger.Component("advisor"), metrics)
	m.repairer = repair.NewRepairer(logger.Component("repairer"), metrics)
	m.repairer.Revalidate = m.revalidate

	logger.Debug("pipeline ready",
		zap.String("sources", m.catalog.Root()),
		zap.String("snapshots", m.snapshots.Dir()),
		zap.String("provider", provider.Name()),
		zap.Int("workers", cfg.Validation.Workers),
	)
	return m
}

// SuggestConfig maps the suggestion section of cfg onto provider settings.
func SuggestConfig(cfg *config.Config) suggest.Config {
	s := cfg.Suggest
	return suggest.Config{
		Provider:         s.Provider,
		OpenAIKey:        s.OpenAIKey,
		OpenAIBaseURL:    s.OpenAIBaseURL,
		OpenAIModel:      s.OpenAIModel,
		AnthropicKey:     s.AnthropicKey,
		AnthropicBaseURL: s.AnthropicBaseURL,
		AnthropicModel:   s.AnthropicModel,
		GeminiKey:        s.GeminiKey,
		GeminiBaseURL:    s.GeminiBaseURL,
		GeminiModel:      s.GeminiModel,
		MaxTokens:        s.MaxTokens,
		Temperature:      s.Temperature,
		Timeout:          s.Timeout.Std(),
	}
}

// Config returns the configuration the manager was built from.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Metrics returns the run's collectors.
func (m *Manager) Metrics() *monitoring.Metrics {
	return m.metrics
}

// Catalog returns the source catalog.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// Snapshots returns the snapshot store.
func (m *Manager) Snapshots() *snapshot.Store {
	return m.snapshots
}

// Provider names the suggestion backend in use.
func (m *Manager) Provider() string {
	return m.advisor.Provider()
}

// Tracer returns the tracer spans of this manager are reported to.
func (m *Manager) Tracer() *tracing.Tracer {
	return m.tracer
}

// Close releases the browser if one was started and flushes pending spans.
func (m *Manager) Close() error {
	defer m.tracer.Close()
	return m.fetcher.Close()
}

// Sources returns the named source, or every source of lang when name is
// empty.
func (m *Manager) Sources(ctx context.Context, name, lang string) ([]*catalog.SourceDefinition, error) {
	if name == "" {
		return m.catalog.ParseAll(ctx, lang)
	}
	def, err := m.catalog.FindByName(ctx, name, lang)
	if err != nil {
		return nil, err
	}
	return []*catalog.SourceDefinition{def}, nil
}

// Validate checks one source against its stored snapshot.
func (m *Manager) Validate(ctx context.Context, def *catalog.SourceDefinition) health.SourceValidationResult {
	span, ctx := m.tracer.StartSpan(ctx, "validate")
	defer m.tracer.End(span)
	span.SetTag("source", def.Name)

	res := m.validator.Validate(ctx, def, m.pool.Snapshot(def))
	span.SetTag("status", string(res.OverallStatus))
	return res
}

// ValidateAll checks defs with the worker pool and summarizes them.
// onResult, when set, sees each source as it finishes.
func (m *Manager) ValidateAll(ctx context.Context, defs []*catalog.SourceDefinition, onResult func(health.SourceValidationResult)) *health.Report {
	started := time.Now()
	span, ctx := m.tracer.StartSpan(ctx, "validate_all")
	defer m.tracer.End(span)

	m.pool.OnResult(onResult)
	report := health.NewReport(m.pool.ValidateAll(ctx, defs))
	span.SetTag("run_id", report.RunID.String())

	m.logger.Info("validation finished",
		zap.String("run_id", report.RunID.String()),
		zap.Int("sources", report.TotalSources),
		zap.Int("healthy", report.Healthy),
		zap.Int("degraded", report.Degraded),
		zap.Int("broken", report.Broken),
		zap.Int("skipped", report.Skipped),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report
}

// Snapshot generates and stores a fresh snapshot for def.
func (m *Manager) Snapshot(ctx context.Context, def *catalog.SourceDefinition, opts health.GenerateOptions) (SnapshotRun, error) {
	if m.cfg.Fetch.UseJS {
		opts.UseJS = true
	}
	snap, errs := m.generator.Generate(ctx, def, opts)
	path, err := m.snapshots.Save(snap)
	if err != nil {
		return SnapshotRun{}, fmt.Errorf("failed to save snapshot for %s: %w", def.Name, err)
	}
	return SnapshotRun{Snapshot: snap, Path: path, FetchErrors: errs}, nil
}

// Repair validates def, asks the advisor about every failing selector and,
// when opts.AutoFix is set, writes eligible fixes back to the source file.
func (m *Manager) Repair(ctx context.Context, def *catalog.SourceDefinition, opts RepairOptions) (RepairRun, error) {
	span, ctx := m.tracer.StartSpan(ctx, "repair")
	defer m.tracer.End(span)
	span.SetTag("source", def.Name)

	res, pages := m.validator.Inspect(ctx, def, m.pool.Snapshot(def))
	run := RepairRun{Validation: res}

	failures := repair.CollectFailures(def, res, pages)
	if len(failures) == 0 {
		m.logger.Info("nothing to repair",
			zap.String("source", def.Name),
			zap.String("status", string(res.OverallStatus)),
		)
		return run, nil
	}

	run.Repair = m.advisor.RepairSource(ctx, def.Name, failures)
	if !opts.AutoFix {
		return run, nil
	}

	threshold := m.cfg.Repair.AutoThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	repairer := *m.repairer
	repairer.Confirm = opts.Confirm
	if !opts.Verify {
		repairer.Revalidate = nil
	}
	report, err := repairer.ApplyFixes(ctx, def, run.Repair.Suggestions, threshold)
	if err != nil {
		span.SetError(err)
		return run, err
	}
	span.SetTag("applied", strconv.Itoa(report.Applied))
	run.Apply = &report
	return run, nil
}

func (m *Manager) revalidate(ctx context.Context, path string) (*health.SourceValidationResult, error) {
	def, ok := m.parser.ParseFile(path)
	if !ok {
		return nil, fmt.Errorf("%s no longer parses as a source definition", path)
	}
	res := m.Validate(ctx, def)
	return &res, nil
}
