package commands

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/SourceHealth/internal/app"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/config"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/server"
)

type serveOptions struct {
	report string
	addr   string
}

func newServeCmd(g *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the health report dashboard API",
		Long: `Serve exposes the last health report over HTTP:

  GET  /healthz
  GET  /api/report
  GET  /api/sources?status=&lang=
  GET  /api/sources/:name
  POST /api/sources/:name/validate   re-validate one source now
  GET  /metrics                       Prometheus metrics

Examples:
  sourcehealth serve
  sourcehealth serve --report health-report.json --addr 0.0.0.0:8090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.report, "report", "r", "", "Report to serve (default: workspace health-report.json)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address host:port (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions, opts *serveOptions) error {
	var host, port string
	if opts.addr != "" {
		var err error
		host, port, err = net.SplitHostPort(opts.addr)
		if err != nil {
			return fmt.Errorf("invalid --addr: %w", err)
		}
	}

	cfg, logger, err := g.load(func(cfg *config.Config) {
		if opts.addr != "" {
			cfg.Server.Host, cfg.Server.Port = host, port
		}
	})
	if err != nil {
		return err
	}

	path := opts.report
	if path == "" {
		path = cfg.Workspace.ReportFile()
	}
	report, err := health.ReadReport(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		pterm.Warning.Printf("No report at %s yet, starting empty\n", path)
		report = nil
	case err != nil:
		return err
	}

	manager := app.NewManager(cfg, logger)
	defer manager.Close()

	srv := server.NewServer(cfg, server.Options{
		Pipeline:   manager,
		Report:     report,
		ReportPath: path,
		Metrics:    manager.Metrics(),
		Tracer:     manager.Tracer(),
	}, logger)

	pterm.Success.Printf("Dashboard API on http://%s\n", srv.Addr())
	return srv.Run(cmd.Context())
}
