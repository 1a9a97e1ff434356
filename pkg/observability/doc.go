/*
Package observability turns engine lifecycle hooks into logs and Prometheus
metrics.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Chain(metrics.Hooks(), observability.LogHooks(logger))
	eng := blade.New(source, host, blade.WithLifecycleHooks(hooks))
*/
package observability
