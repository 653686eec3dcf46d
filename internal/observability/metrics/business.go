package metrics

import (
	"time"
)

// Scan outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeDegraded = "degraded"
	OutcomeRejected = "rejected"
)

// Classification modes.
const (
	ModeJudge     = "judge"
	ModePrefilter = "prefilter"
	ModeHeuristic = "heuristic"
	ModeDegraded  = "degraded"
	ModeOffTopic  = "off_topic"
)

// RecordScan records the outcome and duration of one scan.
func RecordScan(outcome string, duration time.Duration, documents, clusters int) {
	ScansTotal.WithLabelValues(outcome).Inc()
	ScanDuration.Observe(duration.Seconds())
	if outcome == OutcomeRejected {
		return
	}
	DocumentsFetched.Observe(float64(documents))
	ClustersPerScan.Observe(float64(clusters))
}

// RecordClassification counts one verdict produced in the given mode.
func RecordClassification(mode string) {
	ClassificationsTotal.WithLabelValues(mode).Inc()
}

// RecordJudgeCall observes the latency of one judge call.
func RecordJudgeCall(provider string, duration time.Duration) {
	JudgeDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordProviderFailure counts a failure that was absorbed into a fallback.
func RecordProviderFailure(provider, reason string) {
	ProviderFailuresTotal.WithLabelValues(provider, reason).Inc()
}

// RecordAuditRecord counts an appended audit record.
func RecordAuditRecord(action string) {
	AuditRecordsTotal.WithLabelValues(action).Inc()
}
