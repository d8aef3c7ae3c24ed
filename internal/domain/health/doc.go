// Package health validates sources against their live sites.
//
// A Validator resolves a source's test pages, fetches each distinct URL
// once, runs every selector on the page its type maps to and classifies
// the outcome against the stored snapshot. A Pool fans that out over many
// sources, a Generator records new snapshots and a Report summarizes a run.
package health
