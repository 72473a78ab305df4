// Package messaging defines the events the marketplace publishes and the stream they live on.
package messaging

import "context"

const (
	// MessagesStream is the JetStream stream holding marketplace message events.
	MessagesStream = "MESSAGES"
	// MessagesSentSubject carries one event per message appended to the message log.
	MessagesSentSubject = "messages.sent"
)

// Event is anything that knows its subject and can serialize itself.
type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Identified events carry a stable id the broker uses to drop duplicate publishes.
type Identified interface {
	ID() string
}

// Publisher hands events to the broker. Publish returns once the broker stored the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
