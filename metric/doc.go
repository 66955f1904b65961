// Package metric adapts store metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	pc, _ := metric.NewPrometheusCollector(reg)
//	st, _ := linguastore.Open(ctx, "learn.db", linguastore.WithMetricsCollector(pc))
//	http.Handle("/metrics", metric.Handler(reg))
package metric
