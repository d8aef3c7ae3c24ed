package commands

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/config"
)

type snapshotOptions struct {
	source     string
	all        bool
	lang       string
	novelURL   string
	chapterURL string
	verify     bool
	js         bool
}

func newSnapshotCmd(g *globalOptions) *cobra.Command {
	opts := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record expected selector values for later validation",
		Long: `Snapshot writes snapshots/<lang>/<source>.json for the chosen sources. With
--verify the test pages are fetched and the first match of every selector is
stored as its expected value; without it selectors are recorded with no
expectation.

Examples:
  sourcehealth snapshot --all
  sourcehealth snapshot --source BestLightNovel --verify
  sourcehealth snapshot --source BestLightNovel --novel-url https://... --chapter-url https://...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Snapshot one source by name")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "Snapshot every source")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Only sources of this language")
	cmd.Flags().StringVar(&opts.novelURL, "novel-url", "", "Novel page to record (single source only)")
	cmd.Flags().StringVar(&opts.chapterURL, "chapter-url", "", "Chapter page to record (single source only)")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Fetch pages and record expected values")
	cmd.Flags().BoolVar(&opts.js, "js", false, "Render pages in a headless browser")
	return cmd
}

func runSnapshot(cmd *cobra.Command, g *globalOptions, opts *snapshotOptions) error {
	if err := selection(opts.source, opts.all, opts.lang); err != nil {
		return err
	}
	if opts.all && (opts.novelURL != "" || opts.chapterURL != "") {
		return errors.New("--novel-url and --chapter-url need --source")
	}

	manager, err := g.manager(func(cfg *config.Config) {
		if opts.js {
			cfg.Fetch.UseJS = true
		}
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx := cmd.Context()
	defs, err := manager.Sources(ctx, opts.source, opts.lang)
	if err != nil {
		return err
	}

	gen := health.GenerateOptions{
		NovelURL:   opts.novelURL,
		ChapterURL: opts.chapterURL,
		Verify:     opts.verify,
		UseJS:      opts.js,
	}

	var failed int
	for _, def := range defs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		run, err := manager.Snapshot(ctx, def, gen)
		if err != nil {
			pterm.Error.Printf("%s: %v\n", def.Name, err)
			failed++
			continue
		}
		pterm.Success.Printf("%s → %s (%d page type(s))\n", def.Name, run.Path, len(run.Snapshot.Selectors))
		for _, fe := range run.FetchErrors {
			pterm.Warning.Printf("  %s\n", fe)
		}
	}

	if failed > 0 {
		return errors.New("some snapshots could not be saved")
	}
	return nil
}
