package subscriber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/wallacore/pkg/config"
	"github.com/abgdnv/wallacore/pkg/messaging/events"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Subject() string {
	return "messages.sent"
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) NakWithDelay(delay time.Duration) error {
	args := m.Called(delay)
	return args.Error(0)
}

func (m *mockAckableMsg) Term() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Metadata() (*jetstream.MsgMetadata, error) {
	args := m.Called()
	meta, _ := args.Get(0).(*jetstream.MsgMetadata)
	return meta, args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func validPayload() []byte {
	payload, _ := events.MessageSentEvent{
		EventID:     uuid.New(),
		Recipient:   "ana@example.com",
		MailSubject: "Nuevo mensaje sobre Bike en Wallacore",
		MailBody:    "Hola",
		SentAt:      time.Now(),
	}.Payload()
	return payload
}

func Test_handleMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	retry := config.RetryConfig{MaxAttempts: 5, InitialBackoff: time.Second}
	testCases := []struct {
		name          string
		newMockMsg    func() *mockAckableMsg
		newDispatcher func() *mockDispatcher
	}{
		{
			name: "valid message is mailed and acked",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return(validPayload()).Times(1)
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			newDispatcher: func() *mockDispatcher {
				d := new(mockDispatcher)
				d.On("Send", mock.Anything, "ana@example.com", "Nuevo mensaje sobre Bike en Wallacore", "Hola").Return(nil).Times(1)
				return d
			},
		},
		{
			name: "invalid message is terminated",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte("invalid data")).Times(1)
				msg.On("Term").Return(nil).Times(1)
				return msg
			},
			newDispatcher: func() *mockDispatcher { return new(mockDispatcher) },
		},
		{
			name: "failed delivery is redelivered with backoff",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return(validPayload()).Times(1)
				msg.On("Metadata").Return(&jetstream.MsgMetadata{NumDelivered: 3}, nil).Times(1)
				msg.On("NakWithDelay", 4*time.Second).Return(nil).Times(1)
				return msg
			},
			newDispatcher: func() *mockDispatcher {
				d := new(mockDispatcher)
				d.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Times(1)
				return d
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockMsg := tc.newMockMsg()
			dispatcher := tc.newDispatcher()
			h := NewHandler(dispatcher, retry, logger)

			// when
			h.handleMessage(context.Background(), mockMsg)

			// then
			mockMsg.AssertExpectations(t)
			dispatcher.AssertExpectations(t)
		})
	}
}

func Test_backoff(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(new(mockDispatcher), config.RetryConfig{MaxAttempts: 10, InitialBackoff: 500 * time.Millisecond}, logger)
	testCases := []struct {
		delivered uint64
		metaErr   error
		expected  time.Duration
	}{
		{delivered: 1, expected: 500 * time.Millisecond},
		{delivered: 2, expected: time.Second},
		{delivered: 4, expected: 4 * time.Second},
		{delivered: 20, expected: time.Minute},
		{metaErr: errors.New("not a jetstream message"), expected: 500 * time.Millisecond},
	}
	for _, tc := range testCases {
		// given
		msg := new(mockAckableMsg)
		msg.On("Metadata").Return(&jetstream.MsgMetadata{NumDelivered: tc.delivered}, tc.metaErr)
		// when
		delay := h.backoff(msg)
		// then
		assert.Equal(t, tc.expected, delay, "delivered=%d", tc.delivered)
	}
}

func Test_backoff_RespectsMaxBackoff(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	retry := config.RetryConfig{MaxAttempts: 10, InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}
	h := NewHandler(new(mockDispatcher), retry, logger)
	msg := new(mockAckableMsg)
	msg.On("Metadata").Return(&jetstream.MsgMetadata{NumDelivered: 6}, nil)

	// when
	delay := h.backoff(msg)

	// then
	assert.Equal(t, 5*time.Second, delay)
}
