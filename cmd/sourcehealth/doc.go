// Command sourcehealth validates the scraping selectors of novel source
// definitions against live pages and repairs the ones that broke.
//
// Usage:
//
//	sourcehealth validate --all [--lang en] [--fail-on-broken]
//	sourcehealth repair --source NAME [--auto-fix] [--interactive] [--verify]
//	sourcehealth snapshot --source NAME --verify
//	sourcehealth list
//	sourcehealth serve --addr 127.0.0.1:8090
//
// Configuration comes from the environment (HEALTH_*, OPENAI_API_KEY,
// ANTHROPIC_API_KEY, GEMINI_API_KEY, ...), an optional --config file and the
// command line flags, in increasing order of precedence.
//
// The exit code is 0 on success, 1 on errors and 2 when validate
// --fail-on-broken finds broken sources.
package main
