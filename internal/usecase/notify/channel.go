// Package notify fans watchlist alerts out to delivery channels without
// blocking the caller. Each channel has its own failure breaker.
package notify

import (
	"context"

	"riskscan/internal/domain/entity"
)

// Channel is a delivery channel such as a Slack or Discord webhook. Send
// must be safe for concurrent use and must respect ctx.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert entity.Alert) error
}
