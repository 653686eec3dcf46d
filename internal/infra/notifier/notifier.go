// Package notifier delivers watchlist alerts to chat webhooks.
//
// Each implementation applies its own rate limit and retries transient
// webhook failures; callers see one error per alert.
package notifier

import (
	"context"

	"riskscan/internal/domain/entity"
)

// Notifier sends one alert.
type Notifier interface {
	// Name is the lowercase channel identifier used in logs and metrics.
	Name() string
	Send(ctx context.Context, alert entity.Alert) error
}
