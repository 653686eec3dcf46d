package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWorkerMetrics_RecordPass(t *testing.T) {
	m := testMetrics()

	m.RecordPass(true, 12.5, 3, 2)
	m.RecordPass(false, 1, 1, 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PassRunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PassRunsTotal.WithLabelValues("failure")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.EntitiesScannedTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AlertsRaisedTotal))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessTimestamp), float64(0))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PassDurationSeconds))
}

func TestWorkerMetrics_FallbackActive(t *testing.T) {
	m := testMetrics()
	m.SetFallbackActive(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConfigFallbackActive))
	m.SetFallbackActive(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ConfigFallbackActive))
}
