// Package tracing wires OpenTelemetry into the service: the SDK tracer
// provider, a server-span HTTP middleware and per-stage spans for the scan
// pipeline (fetch, lookups, classify, cluster, brief).
//
//	shutdown := tracing.Init(cfg.TraceSampleRatio)
//	defer func() { _ = shutdown(context.Background()) }()
package tracing
