package notify

import (
	"context"
	"fmt"
	"time"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/pkg/messaging"
	"github.com/abgdnv/wallacore/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// QueueDispatcher hands notifications over to the notifier worker through the message broker.
// A notification counts as delivered once the broker has stored the event.
type QueueDispatcher struct {
	publisher messaging.Publisher
	now       func() time.Time
}

var _ Dispatcher = (*QueueDispatcher)(nil)

func NewQueueDispatcher(publisher messaging.Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher, now: time.Now}
}

func (d *QueueDispatcher) Send(ctx context.Context, to, subject, body string) error {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.MessageSentEvent{
		Carrier:     carrier,
		EventID:     uuid.New(),
		Recipient:   to,
		MailSubject: subject,
		MailBody:    body,
		SentAt:      d.now().UTC(),
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to queue notification for %s: %w: %w", to, err, serrors.ErrDelivery)
	}
	return nil
}
