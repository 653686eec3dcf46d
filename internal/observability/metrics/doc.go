// Package metrics provides the Prometheus registry and recording helpers.
//
// It holds the HTTP RED metrics used by the metrics middleware and the scan
// pipeline metrics (scans, classifications, judge latency, provider failures,
// audit appends). Everything registers with the default registry and is
// served from /metrics.
//
//	start := time.Now()
//	result, _ := svc.Scan(ctx, query)
//	metrics.RecordScan(metrics.OutcomeOK, time.Since(start), docs, len(result.Clusters))
package metrics
