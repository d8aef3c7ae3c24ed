// Package app assembles the selector health pipeline from configuration.
//
// A Manager owns one instance of every stage: the source catalog, the
// snapshot store, the page fetcher, the validator and its worker pool, the
// snapshot generator, the repair advisor and the repairer. Commands and the
// dashboard server drive the pipeline through it.
//
// Example Usage:
//
//	manager := app.NewManager(cfg, logger)
//	defer manager.Close()
//
//	defs, err := manager.Sources(ctx, "", "en")
//	if err != nil {
//	    return err
//	}
//	report := manager.ValidateAll(ctx, defs, nil)
package app
