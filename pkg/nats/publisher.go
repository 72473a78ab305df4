package nats

import (
	"context"
	"fmt"

	"github.com/abgdnv/wallacore/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsPublisher writes events to JetStream. Publish blocks until the stream acknowledged
// the event. Events implementing messaging.Identified are published with their id as
// Nats-Msg-Id so a retried publish inside the duplicate window is stored once.
type NatsPublisher struct {
	js jetstream.JetStream
}

var _ messaging.Publisher = (*NatsPublisher)(nil)

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	subject := event.Subject()
	payload, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode event for %s: %w", subject, err)
	}

	if _, err = p.js.Publish(ctx, subject, payload, publishOpts(event)...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func publishOpts(event messaging.Event) []jetstream.PublishOpt {
	identified, ok := event.(messaging.Identified)
	if !ok || identified.ID() == "" {
		return nil
	}
	return []jetstream.PublishOpt{jetstream.WithMsgID(identified.ID())}
}
