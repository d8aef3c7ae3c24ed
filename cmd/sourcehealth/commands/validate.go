package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/config"
)

type validateOptions struct {
	source       string
	all          bool
	lang         string
	js           bool
	output       string
	failOnBroken bool
	workers      int
	metricsFile  string
	details      bool
}

func newValidateCmd(g *globalOptions) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check selectors against live pages and write a health report",
		Long: `Validate runs every selector of the chosen sources against their test pages
and classifies each as pass, warn, fail or skip. Sources are summarized as
healthy, degraded, broken or skip, and the report is written as JSON.

Examples:
  sourcehealth validate --all
  sourcehealth validate --all --lang en --workers 8 --output report.json
  sourcehealth validate --source BestLightNovel --js
  sourcehealth validate --all --fail-on-broken --metrics-file health.prom`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Validate one source by name")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "Validate every source")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Only sources of this language")
	cmd.Flags().BoolVar(&opts.js, "js", false, "Render pages in a headless browser")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Report path (default: workspace health-report.json)")
	cmd.Flags().BoolVar(&opts.failOnBroken, "fail-on-broken", false, "Exit non-zero when any source is broken")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Sources validated in parallel (default from config)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&opts.details, "details", false, "List failing selectors of every source")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globalOptions, opts *validateOptions) error {
	if err := selection(opts.source, opts.all, opts.lang); err != nil {
		return err
	}

	manager, err := g.manager(func(cfg *config.Config) {
		if opts.js {
			cfg.Fetch.UseJS = true
		}
		if opts.workers > 0 {
			cfg.Validation.Workers = opts.workers
		}
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	defs, err := manager.Sources(ctx, opts.source, opts.lang)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		pterm.Warning.Println("No sources found")
		return nil
	}

	pterm.Info.Printf("Validating %d source(s) with %d worker(s)\n", len(defs), manager.Config().Validation.Workers)
	p := &progress{out: out}
	report := manager.ValidateAll(ctx, defs, p.source)

	if opts.details || opts.source != "" {
		for _, r := range report.Sources {
			if err := renderFailures(out, r); err != nil {
				return err
			}
		}
	}
	if err := renderSummary(out, report); err != nil {
		return err
	}

	path := opts.output
	if path == "" {
		path = manager.Config().Workspace.ReportFile()
	}
	if err := report.Write(path); err != nil {
		return err
	}
	pterm.Success.Printf("Report written to %s\n", path)

	if opts.metricsFile != "" {
		if err := manager.Metrics().WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
		pterm.Info.Printf("Metrics written to %s\n", opts.metricsFile)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("validation interrupted: %w", ctx.Err())
	}
	if opts.failOnBroken && report.HasBroken() {
		return fmt.Errorf("%w: %d of %d", ErrBrokenSources, report.Broken, report.TotalSources)
	}
	return nil
}
