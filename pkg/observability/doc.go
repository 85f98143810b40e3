// Package observability provides Prometheus metrics, OpenTelemetry tracing and
// health checks for the organization tooling.
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordOrganizationCreated(observability.StatusSuccess, time.Since(start))
//
// Every Record helper is a no-op on a nil *Metrics. Short-lived processes dump the
// registry with WriteTextfile for the node exporter textfile collector.
//
// # Tracing
//
//	tp, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "orgforge",
//		Insecure:    true,
//	}, log)
//	defer observability.ShutdownOTel(ctx, tp, log)
//
// Packages create their tracer with otel.Tracer("orgforge/<package>") and add the
// span identifiers to log lines with WithTraceContext.
package observability
