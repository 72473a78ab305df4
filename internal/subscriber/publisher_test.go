package subscriber

import (
	"context"

	"github.com/abgdnv/wallacore/pkg/messaging"
)

// subjectPublisher republishes events on a per-test subject so parallel suites do not share streams.
type subjectPublisher struct {
	publisher messaging.Publisher
	subject   string
}

type subjectEvent struct {
	messaging.Event
	subject string
}

func (e subjectEvent) Subject() string { return e.subject }

func (p *subjectPublisher) Publish(ctx context.Context, event messaging.Event) error {
	return p.publisher.Publish(ctx, subjectEvent{Event: event, subject: p.subject})
}
