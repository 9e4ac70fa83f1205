/*
Package observability turns engine lifecycle events into logs, Prometheus metrics and
OpenTelemetry traces.

Metrics and logging are plain domain.LifecycleHooks and can be combined with domain.ChainHooks:

	metrics := observability.NewMetrics("concierge")
	hooks := domain.ChainHooks(observability.LoggingHooks(logger), metrics.Hooks())
*/
package observability
