package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/SourceHealth/internal/app"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/config"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SourceHealth/internal/shared/utils"
)

// ErrBrokenSources is returned by validate --fail-on-broken when the report
// contains broken sources.
var ErrBrokenSources = errors.New("broken sources found")

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	workspace  string
	configPath string
	verbose    bool
}

// NewRootCmd builds the sourcehealth command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "sourcehealth",
		Short: "Validate and repair scraping selectors of novel sources",
		Long: `sourcehealth - selector health validation and repair

Parses Kotlin source definitions, runs their CSS/XPath selectors against live
test pages, compares the results with stored snapshots and proposes (or
applies) repairs for selectors that stopped matching.

Available commands:
  validate - Check selectors and write a health report
  repair   - Suggest and apply fixes for failing selectors
  snapshot - Record expected selector values
  list     - List parsed sources
  serve    - Serve the health report dashboard API

Examples:
  sourcehealth validate --all --lang en
  sourcehealth validate --source BestLightNovel --fail-on-broken
  sourcehealth repair --source BestLightNovel --auto-fix --verify
  sourcehealth snapshot --all --verify
  sourcehealth serve --addr 127.0.0.1:8090`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.workspace, "workspace", "w", "", "Workspace root holding sources/ and snapshots/ (default: $HEALTH_WORKSPACE or .)")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newRepairCmd(opts))
	root.AddCommand(newSnapshotCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newServeCmd(opts))
	return root
}

// load reads configuration: environment, then the config file, then the
// flags applied by tweak.
func (o *globalOptions) load(tweak func(*config.Config)) (*config.Config, *logging.Logger, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.workspace != "" {
		cfg.Workspace.Root = o.workspace
	}
	if tweak != nil {
		tweak(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logging.ForCLI(cfg.Logging.Level, cfg.Logging.Development, o.verbose), nil
}

// manager builds the pipeline for one command run.
func (o *globalOptions) manager(tweak func(*config.Config)) (*app.Manager, error) {
	cfg, logger, err := o.load(tweak)
	if err != nil {
		return nil, err
	}
	return app.NewManager(cfg, logger), nil
}

// selection checks the --source / --all pair and the language filter.
func selection(source string, all bool, lang string) error {
	if source == "" && !all {
		return errors.New("either --source or --all is required")
	}
	if source != "" && all {
		return errors.New("--source and --all are mutually exclusive")
	}
	if source != "" {
		if err := utils.ValidateSourceName(source); err != nil {
			return err
		}
	}
	return utils.ValidateLang(lang)
}
