package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskscan/internal/domain/entity"
)

type stubScanner struct {
	results map[string]entity.ScanResult
	errs    map[string]error
	calls   []string
}

func (s *stubScanner) Scan(_ context.Context, query string) (entity.ScanResult, error) {
	s.calls = append(s.calls, query)
	if err := s.errs[query]; err != nil {
		return entity.ScanResult{}, err
	}
	r := s.results[query]
	r.Query = query
	return r, nil
}

type recordingNotifier struct {
	alerts []entity.Alert
	err    error
}

func (n *recordingNotifier) NotifyAlert(_ context.Context, a entity.Alert) error {
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, a)
	return nil
}

func cluster(url string, adverse bool, score int) entity.Cluster {
	return entity.Cluster{
		Key: url,
		Representative: entity.ClassifiedDocument{
			Document: entity.Document{ID: url, Title: "headline " + url},
			Verdict:  entity.Verdict{IsRelevant: true, IsAdverse: adverse, RiskScore: score},
		},
	}
}

func TestRunOnce_AlertsAdverseAboveThreshold(t *testing.T) {
	scanner := &stubScanner{results: map[string]entity.ScanResult{
		"Acme": {Clusters: []entity.Cluster{
			cluster("https://a.example/fraud", true, 85),
			cluster("https://a.example/minor", true, 40),
			cluster("https://a.example/award", false, 0),
		}},
	}}
	n := &recordingNotifier{}
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &Service{Scanner: scanner, Notifier: n, Entities: []string{"Acme"}, MinScore: 60,
		Now: func() time.Time { return fixed }}

	stats, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Entities: 1, Adverse: 2, Alerted: 1}, stats)
	require.Len(t, n.alerts, 1)
	assert.Equal(t, "https://a.example/fraud", n.alerts[0].Key())
	assert.Equal(t, "Acme", n.alerts[0].Query)
	assert.Equal(t, fixed, n.alerts[0].DetectedAt)
}

func TestRunOnce_DoesNotRepeatAlerts(t *testing.T) {
	scanner := &stubScanner{results: map[string]entity.ScanResult{
		"Acme": {Clusters: []entity.Cluster{cluster("https://a.example/fraud", true, 85)}},
	}}
	n := &recordingNotifier{}
	svc := &Service{Scanner: scanner, Notifier: n, Entities: []string{"Acme"}}

	_, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	stats, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Len(t, n.alerts, 1)
	assert.Equal(t, 0, stats.Alerted)
	assert.Equal(t, 1, stats.Adverse)
}

func TestRunOnce_ScanFailureContinues(t *testing.T) {
	scanner := &stubScanner{
		results: map[string]entity.ScanResult{
			"Globex": {Clusters: []entity.Cluster{cluster("https://g.example/1", true, 90)}},
		},
		errs: map[string]error{"Acme": entity.ErrInvalidQuery},
	}
	n := &recordingNotifier{}
	svc := &Service{Scanner: scanner, Notifier: n, Entities: []string{"Acme", "Globex"}}

	stats, err := svc.RunOnce(context.Background())
	assert.ErrorIs(t, err, entity.ErrInvalidQuery)
	assert.Equal(t, []string{"Acme", "Globex"}, scanner.calls)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Alerted)
}

func TestRunOnce_NotifyFailureIsRetriedNextPass(t *testing.T) {
	scanner := &stubScanner{results: map[string]entity.ScanResult{
		"Acme": {Clusters: []entity.Cluster{cluster("https://a.example/fraud", true, 85)}},
	}}
	n := &recordingNotifier{err: errors.New("invalid alert")}
	svc := &Service{Scanner: scanner, Notifier: n, Entities: []string{"Acme"}}

	_, err := svc.RunOnce(context.Background())
	assert.Error(t, err)

	n.err = nil
	stats, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Alerted)
}

func TestRunOnce_StopsOnCancelledContext(t *testing.T) {
	scanner := &stubScanner{}
	svc := &Service{Scanner: scanner, Notifier: &recordingNotifier{}, Entities: []string{"Acme", "Globex"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.RunOnce(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, scanner.calls)
}
