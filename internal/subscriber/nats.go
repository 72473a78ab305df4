// Package subscriber consumes queued message notifications from JetStream and mails them.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/wallacore/internal/notify"
	"github.com/abgdnv/wallacore/pkg/config"
	"github.com/abgdnv/wallacore/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
	Metadata() (*jetstream.MsgMetadata, error)
}

// Handler mails the notification carried by one event.
type Handler struct {
	dispatcher notify.Dispatcher
	retry      config.RetryConfig
	logger     *slog.Logger
}

func NewHandler(dispatcher notify.Dispatcher, retry config.RetryConfig, logger *slog.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, retry: retry, logger: logger.With("component", "subscriber")}
}

// Start initializes the NATS JetStream consumer and starts multiple worker goroutines to process messages.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, h *Handler) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    int(h.retry.MaxAttempts),
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range subscriberCfg.Workers {
		g.Go(func() error {
			return h.runWorker(gCtx, consumer, subscriberCfg)
		})
	}
	return g.Wait()
}

// runWorker fetches messages from the NATS JetStream consumer and processes them.
func (h *Handler) runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				h.logger.Error("failed to fetch messages", "error", err)
				time.Sleep(cfg.Interval)
				continue
			}
			for msg := range batch.Messages() {
				h.handleMessage(ctx, msg)
			}
			if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
				h.logger.Warn("batch ended with error", "error", err)
			}
		}
	}
}

// handleMessage mails the notification of one event.
// Undecodable events are terminated; failed deliveries are redelivered with backoff.
func (h *Handler) handleMessage(ctx context.Context, msg ackableMsg) {
	if msg == nil {
		h.logger.Error("received nil message")
		return
	}
	var event events.MessageSentEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		h.logger.Error("failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			h.logger.Error("failed to terminate message", "error", err)
		}
		return
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, event.Carrier)
	h.logger.InfoContext(ctx, "received message sent event",
		slog.String("subject", msg.Subject()),
		slog.String("event_id", event.EventID.String()),
		slog.String("recipient", event.Recipient),
		slog.String("sent_at", event.SentAt.Format(time.RFC3339)))

	if err := h.dispatcher.Send(ctx, event.Recipient, event.MailSubject, event.MailBody); err != nil {
		delay := h.backoff(msg)
		h.logger.WarnContext(ctx, "notification delivery failed, will retry",
			"event_id", event.EventID.String(), "delay", delay, "error", err)
		if err := msg.NakWithDelay(delay); err != nil {
			h.logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		h.logger.Error("failed to ack message", "error", err)
	}
}

// backoff doubles the initial backoff for every previous delivery attempt, up to MaxBackoff.
func (h *Handler) backoff(msg ackableMsg) time.Duration {
	limit := h.retry.MaxBackoff
	if limit <= 0 {
		limit = time.Minute
	}
	delay := h.retry.InitialBackoff
	meta, err := msg.Metadata()
	if err != nil || meta == nil {
		return delay
	}
	for i := uint64(1); i < meta.NumDelivered && delay < limit; i++ {
		delay *= 2
	}
	return min(delay, limit)
}
