package commands

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/SourceHealth/internal/app"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/repair"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/config"
)

type repairOptions struct {
	source      string
	lang        string
	autoFix     bool
	threshold   float64
	interactive bool
	verify      bool
	provider    string
	js          bool
}

func newRepairCmd(g *globalOptions) *cobra.Command {
	opts := &repairOptions{}

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Suggest and apply fixes for failing selectors",
		Long: `Repair validates one source, asks the configured suggestion provider for a
replacement of every failing or warning selector and prints the proposals.

With --auto-fix, proposals at or above the confidence threshold are written
back to the Kotlin file. A .bak copy of the file is always made first.
--interactive asks about each proposal instead of using the threshold.

Providers: auto, openai, openrouter, ollama, anthropic, gemini, heuristic, none

Examples:
  sourcehealth repair --source BestLightNovel
  sourcehealth repair --source BestLightNovel --auto-fix --threshold 0.7 --verify
  sourcehealth repair --source BestLightNovel --interactive --provider heuristic`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepair(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Source to repair (required)")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Language of the source")
	cmd.Flags().BoolVar(&opts.autoFix, "auto-fix", false, "Write eligible fixes to the source file")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "Minimum confidence for --auto-fix, 0 applies every suggestion (default from config)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Confirm every fix interactively")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Re-validate the source after writing")
	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "Suggestion provider (default from config)")
	cmd.Flags().BoolVar(&opts.js, "js", false, "Render pages in a headless browser")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func runRepair(cmd *cobra.Command, g *globalOptions, opts *repairOptions) error {
	if err := selection(opts.source, false, opts.lang); err != nil {
		return err
	}
	thresholdSet := cmd.Flags().Changed("threshold")
	if opts.threshold < 0 || opts.threshold > 1 {
		return fmt.Errorf("--threshold must be within [0,1], got %v", opts.threshold)
	}

	manager, err := g.manager(func(cfg *config.Config) {
		if opts.provider != "" {
			cfg.Suggest.Provider = opts.provider
		}
		if opts.js {
			cfg.Fetch.UseJS = true
		}
		if thresholdSet {
			cfg.Repair.AutoThreshold = opts.threshold
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
	def := defs[0]

	ro := app.RepairOptions{
		AutoFix: opts.autoFix || opts.interactive,
		Verify:  opts.verify,
	}
	if thresholdSet {
		ro.Threshold = &opts.threshold
	}
	if opts.interactive {
		ro.Confirm = confirmFix
	}

	pterm.Info.Printf("Repairing %s with provider %s\n", def.Name, manager.Provider())
	run, err := manager.Repair(ctx, def, ro)

	p := &progress{out: out}
	p.source(run.Validation)
	if rerr := renderFailures(out, run.Validation); rerr != nil {
		return errors.Join(err, rerr)
	}
	if err != nil {
		return err
	}

	if len(run.Repair.Suggestions) == 0 {
		pterm.Success.Println("No failing selectors, nothing to repair")
		return nil
	}
	if err := renderSuggestions(out, run.Repair.Suggestions); err != nil {
		return err
	}
	pterm.Info.Printf("%d request(s), %d token(s) used\n", run.Repair.Requests, run.Repair.TokensUsed)

	if run.Apply == nil {
		pterm.Info.Println("Run with --auto-fix or --interactive to apply")
		return nil
	}
	if err := renderOutcomes(out, run.Apply.Outcomes); err != nil {
		return err
	}
	pterm.Info.Printf("Backup: %s\n", run.Apply.BackupPath)
	if run.Apply.Applied == 0 {
		pterm.Warning.Println("No fixes applied, source file unchanged")
		return nil
	}
	pterm.Success.Printf("Applied %d fix(es) to %s\n", run.Apply.Applied, run.Apply.Path)

	if rv := run.Apply.Revalidated; rv != nil {
		p.source(*rv)
		if run.Apply.StillFailing > 0 {
			pterm.Warning.Printf("%d applied fix(es) still failing\n", run.Apply.StillFailing)
		}
	}
	return nil
}

func confirmFix(s repair.RepairSuggestion) bool {
	pterm.Printf("\n%s %s (%s, line %d)\n", pterm.LightCyan("▸"), s.Name, s.PageType, s.Line)
	pterm.Printf("  current:   %s\n", pterm.Red(s.Original))
	pterm.Printf("  suggested: %s  %s\n", pterm.Green(s.Suggested), pterm.Gray(fmt.Sprintf("%.0f%%", s.Confidence*100)))
	if s.Explanation != "" {
		pterm.Printf("  %s\n", pterm.Gray(s.Explanation))
	}
	ok, err := pterm.DefaultInteractiveConfirm.WithDefaultText("Apply this fix?").Show()
	if err != nil {
		return false
	}
	return ok
}
