package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/wallacore/pkg/messaging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
)

// MessageSentEvent asks the notifier to mail the recipient of a new message.
// The mail subject and body are rendered by the publisher.
type MessageSentEvent struct {
	Carrier     propagation.MapCarrier `json:"carrier,omitempty"`
	EventID     uuid.UUID              `json:"event_id"`
	Recipient   string                 `json:"recipient"`
	MailSubject string                 `json:"mail_subject"`
	MailBody    string                 `json:"mail_body"`
	SentAt      time.Time              `json:"sent_at"`
}

func (e MessageSentEvent) Subject() string {
	return messaging.MessagesSentSubject
}

func (e MessageSentEvent) ID() string {
	if e.EventID == uuid.Nil {
		return ""
	}
	return e.EventID.String()
}

func (e MessageSentEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
