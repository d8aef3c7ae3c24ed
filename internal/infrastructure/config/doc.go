// Package config loads pipeline configuration following 12-factor principles.
//
// Sources, lowest precedence first:
//   - struct tag defaults
//   - environment variables (envconfig)
//   - an optional YAML or TOML file (LoadFile)
//   - command line flags, applied by cmd/sourcehealth
//
// Example:
//
//	cfg, err := config.LoadFile("health.yaml")
//	if err != nil {
//		return err
//	}
//	pool := health.NewPool(validator, store, cfg.Validation.Workers, logger)
package config
