package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const breakerName = "notification-dispatcher"

// BreakerDispatcher guards another dispatcher with a circuit breaker.
// While the breaker is open notifications fail fast without reaching the wrapped dispatcher.
// The breaker state is exported as the notification_breaker_state gauge:
// 0 closed, 1 half-open, 2 open.
type BreakerDispatcher struct {
	next    Dispatcher
	breaker *gobreaker.CircuitBreaker[struct{}]
}

var _ Dispatcher = (*BreakerDispatcher)(nil)

func NewBreakerDispatcher(next Dispatcher, cfg config.CircuitBreakerConfig, logger *slog.Logger) *BreakerDispatcher {
	return newBreakerDispatcher(next, cfg, logger, otel.Meter("notify"))
}

func newBreakerDispatcher(next Dispatcher, cfg config.CircuitBreakerConfig, logger *slog.Logger, meter metric.Meter) *BreakerDispatcher {
	st := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			// cancelled requests say nothing about the health of the mail path
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	d := &BreakerDispatcher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](st),
	}
	_, err := meter.Int64ObservableGauge("notification_breaker_state",
		metric.WithDescription("Circuit breaker state of the notification channel: 0 closed, 1 half-open, 2 open"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(d.State()), metric.WithAttributes(attribute.String("breaker", breakerName)))
			return nil
		}),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create notification_breaker_state gauge: %v", err))
	}
	return d
}

func (d *BreakerDispatcher) Send(ctx context.Context, to, subject, body string) error {
	_, err := d.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, d.next.Send(ctx, to, subject, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("notification to %s rejected: %w: %w", to, err, serrors.ErrDelivery)
	}
	return err
}

// State reports the current breaker state.
func (d *BreakerDispatcher) State() gobreaker.State {
	return d.breaker.State()
}
