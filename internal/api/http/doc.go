// Package http implements the dashboard API over a health report.
//
// Reads are served from the report loaded at startup. POST
// /api/sources/:name/validate re-validates one source through the pipeline
// and replaces its entry in the report.
package http
