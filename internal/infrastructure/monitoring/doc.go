/*
Package monitoring provides Prometheus metrics for the health pipeline.

# Overview

Collectors live on a private registry owned by Metrics. Every stage takes
an optional *Metrics; nil disables recording.

# Metrics

  - fetches by mode (http, browser) and outcome, fetch latency, cache hits
  - selector checks by status, sources by overall status, per-source time
  - suggestions by provider and outcome, provider tokens, fixes applied
  - dashboard HTTP requests

# Usage

	metrics := monitoring.NewMetrics()
	fetch := fetcher.New(opts, logger, metrics)

	// batch runs: node-exporter textfile
	_ = metrics.WriteTextfile("/var/lib/node_exporter/sourcehealth.prom")

	// dashboard
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
