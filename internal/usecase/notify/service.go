package notify

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"riskscan/internal/domain/entity"
)

// Defaults for Config.
const (
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 5 * time.Minute
	DefaultPoolTimeout      = 5 * time.Second
	DefaultSendTimeout      = 30 * time.Second
)

// Config tunes the dispatcher. Zero fields take the defaults above.
type Config struct {
	MaxConcurrent int

	// BreakerThreshold consecutive failures disable a channel for
	// BreakerTimeout.
	BreakerThreshold int
	BreakerTimeout   time.Duration

	// PoolTimeout is how long a send waits for a worker slot before the
	// alert is dropped for that channel.
	PoolTimeout time.Duration
	SendTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = DefaultBreakerThreshold
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = DefaultBreakerTimeout
	}
	if c.PoolTimeout <= 0 {
		c.PoolTimeout = DefaultPoolTimeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	return c
}

// ChannelHealthStatus is the breaker state of one channel.
type ChannelHealthStatus struct {
	Name               string
	CircuitBreakerOpen bool
	DisabledUntil      *time.Time
}

type channelHealth struct {
	mu                  sync.Mutex
	consecutiveFailures int
	disabledUntil       time.Time
}

func (h *channelHealth) disabled(now time.Time) (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disabledUntil, now.Before(h.disabledUntil)
}

// record updates the failure streak and reports whether this failure
// disabled the channel.
func (h *channelHealth) record(err error, threshold int, timeout time.Duration) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		h.consecutiveFailures = 0
		return 0, false
	}
	h.consecutiveFailures++
	if h.consecutiveFailures < threshold {
		return h.consecutiveFailures, false
	}
	h.disabledUntil = time.Now().Add(timeout)
	return h.consecutiveFailures, true
}

// Service dispatches alerts to every channel in background goroutines.
type Service struct {
	cfg      Config
	channels []Channel
	health   map[string]*channelHealth
	pool     chan struct{}
	wg       sync.WaitGroup
	metrics  *channelMetrics

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService creates a dispatcher over channels.
func NewService(channels []Channel, cfg Config) *Service {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cfg:            cfg,
		channels:       channels,
		health:         make(map[string]*channelHealth, len(channels)),
		pool:           make(chan struct{}, cfg.MaxConcurrent),
		metrics:        deliveryMetrics,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
	for _, ch := range channels {
		s.health[ch.Name()] = &channelHealth{}
	}
	return s
}

// NotifyAlert returns immediately after starting one send per channel.
// Delivery failures are logged and counted, never returned.
func (s *Service) NotifyAlert(ctx context.Context, alert entity.Alert) error {
	if alert.Key() == "" {
		return ErrInvalidAlert
	}
	if len(s.channels) == 0 {
		return nil
	}
	slog.Info("dispatching alert",
		slog.String("query", alert.Query),
		slog.String("url", alert.Key()),
		slog.Int("channels", len(s.channels)))

	for _, ch := range s.channels {
		s.wg.Add(1)
		go s.notifyChannel(ch, alert)
	}
	return nil
}

func (s *Service) notifyChannel(ch Channel, alert entity.Alert) {
	defer s.wg.Done()
	s.metrics.inFlight.Inc()
	defer s.metrics.inFlight.Dec()

	name := ch.Name()
	logger := slog.Default().With(
		slog.String("channel", name),
		slog.String("query", alert.Query),
		slog.String("url", alert.Key()))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in notification channel",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.pool <- struct{}{}:
		defer func() { <-s.pool }()
	case <-time.After(s.cfg.PoolTimeout):
		logger.Warn("alert dropped: worker pool full")
		s.metrics.drop(name, "pool_full")
		return
	}

	h := s.health[name]
	if until, disabled := h.disabled(time.Now()); disabled {
		logger.Warn("channel disabled by breaker", slog.Time("disabled_until", until))
		s.metrics.drop(name, "circuit_open")
		return
	}

	ctx, cancel := context.WithTimeout(s.shutdownCtx, s.cfg.SendTimeout)
	defer cancel()

	s.metrics.started(name)
	start := time.Now()
	err := ch.Send(ctx, alert)
	elapsed := time.Since(start)
	s.metrics.finished(name, err, elapsed)

	if failures, tripped := h.record(err, s.cfg.BreakerThreshold, s.cfg.BreakerTimeout); tripped {
		logger.Error("breaker opened for channel", slog.Int("consecutive_failures", failures))
		s.metrics.tripped(name)
	}
	if err != nil {
		logger.Warn("alert notification failed",
			slog.Duration("send_duration", elapsed),
			slog.Any("error", err))
	}
}

// ChannelHealth reports the breaker state of every channel.
func (s *Service) ChannelHealth() []ChannelHealthStatus {
	out := make([]ChannelHealthStatus, 0, len(s.channels))
	now := time.Now()
	for _, ch := range s.channels {
		st := ChannelHealthStatus{Name: ch.Name()}
		if until, disabled := s.health[ch.Name()].disabled(now); disabled {
			st.CircuitBreakerOpen = true
			st.DisabledUntil = &until
		}
		out = append(out, st)
	}
	return out
}

// Shutdown cancels in-flight sends and waits for them to return or for ctx
// to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	slog.Info("shutting down notification service")
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}

// Wait blocks until every dispatched send has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
