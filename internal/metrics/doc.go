// Package metrics exports orchestrator, cache and HTTP metrics to the default
// Prometheus registry. Collectors are registered once on first use.
package metrics
