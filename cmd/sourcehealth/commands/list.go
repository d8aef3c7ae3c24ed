package commands

import (
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/shared/utils"
)

type listOptions struct {
	lang   string
	asJSON bool
}

func newListCmd(g *globalOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List parsed sources and their selectors",
		Long: `List parses the catalog and prints one row per source: its language, base
URL, selector count per page type, and whether a test fixture and a snapshot
exist.

Examples:
  sourcehealth list
  sourcehealth list --lang en
  sourcehealth list --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Only sources of this language")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print source definitions as JSON")
	return cmd
}

func runList(cmd *cobra.Command, g *globalOptions, opts *listOptions) error {
	if err := utils.ValidateLang(opts.lang); err != nil {
		return err
	}
	manager, err := g.manager(nil)
	if err != nil {
		return err
	}
	defer manager.Close()

	defs, err := manager.Sources(cmd.Context(), "", opts.lang)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if opts.asJSON {
		if defs == nil {
			defs = []*catalog.SourceDefinition{}
		}
		data, err := sonic.ConfigStd.MarshalIndent(defs, "", "  ")
		if err != nil {
			return err
		}
		_, err = out.Write(append(data, '\n'))
		return err
	}

	data := pterm.TableData{{"Name", "Lang", "Base URL", "Selectors", "Fixture", "Snapshot"}}
	for _, def := range defs {
		snap, _ := manager.Snapshots().Load(def.Name, def.Lang)
		data = append(data, []string{
			def.Name,
			def.Lang,
			def.BaseURL,
			selectorCounts(def),
			yesNo(def.Fixture.HasURLs()),
			yesNo(snap != nil),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printf("%d source(s)\n", len(defs))
	return nil
}

// selectorCounts renders "explore 6, detail 5" in catalog order.
func selectorCounts(def *catalog.SourceDefinition) string {
	var parts []string
	for _, pt := range slices.Concat(catalog.PageTypes, []catalog.PageType{catalog.PageUnknown}) {
		if n := len(def.SelectorsFor(pt)); n > 0 {
			parts = append(parts, string(pt)+" "+strconv.Itoa(n))
		}
	}
	if len(parts) == 0 {
		return pterm.Gray("none")
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return pterm.Green("yes")
	}
	return pterm.Gray("no")
}
