package service

import (
	"context"
	"fmt"
	"log/slog"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/internal/notify"
	"github.com/abgdnv/wallacore/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Message directions relative to the viewer.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// MessageService defines the messaging operations offered to the transport layer.
type MessageService interface {
	// ListFor returns the conversation of email, most recent first.
	ListFor(ctx context.Context, email string) ([]MessageDto, error)

	// CountUnread returns how many listed messages were received by email.
	CountUnread(ctx context.Context, email string) (int, error)

	// Get returns the message at index as seen by email.
	// Returns ErrIndexOutOfRange if no message of email's conversation is stored at that position.
	Get(ctx context.Context, email string, index int) (*MessageDto, error)

	// Send appends a message and notifies its recipient once.
	// A failed notification is reported in the receipt and never undoes the append.
	Send(ctx context.Context, sender, recipient, product, body string) (*SendReceipt, error)

	// Delete removes a message received by email.
	// Returns ErrForbidden for messages email sent.
	Delete(ctx context.Context, email string, index int) error
}

// MessageDto represents the data transfer object for a message as seen by one participant.
type MessageDto struct {
	Index       int    `json:"index"`
	Timestamp   string `json:"timestamp"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Product     string `json:"product"`
	Body        string `json:"body"`
	Direction   string `json:"direction"`
	Counterpart string `json:"counterpart"`
}

// SendReceipt is the outcome of Send. DeliveryErr is nil when the recipient was notified.
type SendReceipt struct {
	Message     MessageDto
	DeliveryErr error
}

// Messages implements MessageService.
type Messages struct {
	store         store.MessageLog
	dispatcher    notify.Dispatcher
	logger        *slog.Logger
	sentCounter   metric.Int64Counter
	failedCounter metric.Int64Counter
}

var _ MessageService = (*Messages)(nil)

// NewMessageService creates a MessageService that notifies recipients through dispatcher.
func NewMessageService(messages store.MessageLog, dispatcher notify.Dispatcher, logger *slog.Logger) *Messages {
	meter := otel.Meter("marketplace")
	sentCounter, err := meter.Int64Counter("messages_sent", metric.WithDescription("Total number of messages appended to the message log"))
	if err != nil {
		panic(fmt.Sprintf("failed to create messages_sent counter: %v", err))
	}
	failedCounter, err := meter.Int64Counter("notifications_failed", metric.WithDescription("Total number of message notifications that could not be delivered"))
	if err != nil {
		panic(fmt.Sprintf("failed to create notifications_failed counter: %v", err))
	}
	return &Messages{
		store:         messages,
		dispatcher:    dispatcher,
		logger:        logger.With("component", "messages"),
		sentCounter:   sentCounter,
		failedCounter: failedCounter,
	}
}

func (s *Messages) ListFor(_ context.Context, email string) ([]MessageDto, error) {
	messages, err := s.store.ListFor(email)
	if err != nil {
		return nil, err
	}
	dtos := make([]MessageDto, 0, len(messages))
	for _, m := range messages {
		dtos = append(dtos, toMessageDto(m, email))
	}
	return dtos, nil
}

func (s *Messages) CountUnread(_ context.Context, email string) (int, error) {
	return s.store.CountUnread(email)
}

func (s *Messages) Get(_ context.Context, email string, index int) (*MessageDto, error) {
	messages, err := s.store.ListFor(email)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		if m.Index == index {
			dto := toMessageDto(m, email)
			return &dto, nil
		}
	}
	return nil, fmt.Errorf("message %d: %w", index, serrors.ErrIndexOutOfRange)
}

func (s *Messages) Send(ctx context.Context, sender, recipient, product, body string) (*SendReceipt, error) {
	appended, err := s.store.Append(sender, recipient, product, body)
	if err != nil {
		return nil, err
	}
	s.sentCounter.Add(ctx, 1)

	receipt := &SendReceipt{Message: toMessageDto(*appended, sender)}
	n := notify.NewMessageNotification(sender, product, body)
	if err := s.dispatcher.Send(ctx, recipient, n.Subject, n.Body); err != nil {
		s.failedCounter.Add(ctx, 1)
		s.logger.WarnContext(ctx, "Message stored but recipient was not notified",
			"index", appended.Index, "recipient", recipient, "error", err)
		receipt.DeliveryErr = err
	}
	return receipt, nil
}

func (s *Messages) Delete(ctx context.Context, email string, index int) error {
	m, err := s.Get(ctx, email, index)
	if err != nil {
		return err
	}
	if m.Direction != DirectionReceived {
		return fmt.Errorf("message %d was sent by %s: %w", index, email, serrors.ErrForbidden)
	}
	return s.store.RemoveAt(index)
}

func toMessageDto(m store.Message, viewer string) MessageDto {
	dto := MessageDto{
		Index:       m.Index,
		Timestamp:   m.Timestamp.Format(store.TimestampLayout),
		Sender:      m.Sender,
		Recipient:   m.Recipient,
		Product:     m.Product,
		Body:        m.Body,
		Direction:   DirectionReceived,
		Counterpart: m.Sender,
	}
	if m.Sender == viewer {
		dto.Direction = DirectionSent
		dto.Counterpart = m.Recipient
	}
	return dto
}
