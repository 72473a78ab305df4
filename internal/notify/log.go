package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher only logs notifications. Used in development where no mail server is available.
type LogDispatcher struct {
	logger *slog.Logger
}

var _ Dispatcher = (*LogDispatcher)(nil)

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(ctx context.Context, to, subject, body string) error {
	d.logger.InfoContext(ctx, "notification",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_length", len(body)))
	return nil
}
