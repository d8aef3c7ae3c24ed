// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON lines on stderr
//   - Development: colored console output, debug level
//
// Each pipeline stage takes a named child logger:
//
//	logger := logging.ForCLI(cfg.Logging.Level, cfg.Logging.Development, verbose)
//	fetch := fetcher.New(opts, logger.Component("fetcher"), metrics)
//	logger.Info("validation finished", zap.Int("sources", n))
package logging
