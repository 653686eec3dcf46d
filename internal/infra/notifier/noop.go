package notifier

import (
	"context"
	"log/slog"

	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
)

// Log writes alerts to the structured log. It is the channel used when no
// webhook is configured.
type Log struct{}

// Name implements Notifier.
func (Log) Name() string { return "log" }

// Send implements Notifier.
func (Log) Send(ctx context.Context, alert entity.Alert) error {
	v := alert.Verdict()
	logging.FromContext(ctx).Warn("adverse media alert",
		slog.String("query", alert.Query),
		slog.String("url", alert.Key()),
		slog.String("title", alert.Document().Title),
		slog.String("severity", string(v.Severity)),
		slog.Int("risk_score", v.RiskScore))
	return nil
}
