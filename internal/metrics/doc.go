// Package metrics provides observability hooks for the focus controller.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	rec := metrics.Recorder(metrics.NoopRecorder{})
//	if cfg.MetricsEnabled {
//	    rec = metrics.NewPrometheusRecorder(registry)
//	}
//
// PrometheusRecorder registers its collectors under the "focusd" namespace on the
// registry it is given; HTTPHandler serves that registry on /metrics.
package metrics
