// Package snapshot persists the last known-good state of each source: test
// URLs, per-selector sample values and fetch hints. Files are JSON under
// <snapshots>/<lang>/<source>.json.
package snapshot
