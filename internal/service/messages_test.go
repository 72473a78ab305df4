package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/internal/store"
	"github.com/abgdnv/wallacore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type messagesFixture struct {
	service    *Messages
	store      *store.MessageStore
	clock      *testutil.StubClock
	dispatcher *mockDispatcher
	reader     *sdkmetric.ManualReader
}

func newMessagesFixture(t *testing.T) *messagesFixture {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	clock := testutil.FixedClock()
	messageStore := store.NewMessageStore(filepath.Join(t.TempDir(), "mensajes.csv"), clock)
	dispatcher := new(mockDispatcher)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &messagesFixture{
		service:    NewMessageService(messageStore, dispatcher, logger),
		store:      messageStore,
		clock:      clock,
		dispatcher: dispatcher,
		reader:     reader,
	}
}

// counter returns the current value of the named counter, 0 if it was never incremented.
func (f *messagesFixture) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func Test_MessageService_Send(t *testing.T) {
	testCases := []struct {
		name          string
		dispatchErr   error
		expectFailed  int64
		expectDeliver bool
	}{
		{name: "Success - recipient notified", expectDeliver: true},
		{name: "Success - delivery failure does not undo the append", dispatchErr: serrors.ErrDelivery, expectFailed: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newMessagesFixture(t)
			f.dispatcher.On("Send", mock.Anything, "ana@example.com",
				"Nuevo mensaje sobre Bike en Wallacore",
				"Hola,\n\nHas recibido un nuevo mensaje de bob@example.com sobre el producto Bike:\n\nStill available?\n\nInicia sesión en Wallacore para responder.",
			).Return(tc.dispatchErr).Once()

			// when
			receipt, err := f.service.Send(context.Background(), "bob@example.com", "ana@example.com", "Bike", "Still available?")

			// then
			require.NoError(t, err)
			require.NotNil(t, receipt)
			assert.Equal(t, "Still available?", receipt.Message.Body)
			assert.Equal(t, DirectionSent, receipt.Message.Direction)
			if tc.expectDeliver {
				assert.NoError(t, receipt.DeliveryErr)
			} else {
				assert.ErrorIs(t, receipt.DeliveryErr, tc.dispatchErr)
			}
			stored, err := f.store.ListFor("ana@example.com")
			require.NoError(t, err)
			require.Len(t, stored, 1)
			assert.Equal(t, "Still available?", stored[0].Body)
			f.dispatcher.AssertExpectations(t)
			f.dispatcher.AssertNumberOfCalls(t, "Send", 1)
			assert.Equal(t, int64(1), f.counter(t, "messages_sent"))
			assert.Equal(t, tc.expectFailed, f.counter(t, "notifications_failed"))
		})
	}
}

func Test_MessageService_Send_StoreFailureSkipsNotification(t *testing.T) {
	// given a message log whose path is a directory
	dir := t.TempDir()
	dispatcher := new(mockDispatcher)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewMessageService(store.NewMessageStore(dir, testutil.FixedClock()), dispatcher, logger)

	// when
	receipt, err := service.Send(context.Background(), "bob@example.com", "ana@example.com", "Bike", "hello")

	// then
	assert.Error(t, err)
	assert.Nil(t, receipt)
	dispatcher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_MessageService_ListFor_Directions(t *testing.T) {
	// given
	f := newMessagesFixture(t)
	f.dispatcher.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	_, err := f.service.Send(context.Background(), "bob@example.com", "ana@example.com", "Bike", "T1")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.service.Send(context.Background(), "ana@example.com", "bob@example.com", "Bike", "T2")
	require.NoError(t, err)

	// when
	list, err := f.service.ListFor(context.Background(), "ana@example.com")

	// then
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "T2", list[0].Body)
	assert.Equal(t, DirectionSent, list[0].Direction)
	assert.Equal(t, "bob@example.com", list[0].Counterpart)
	assert.Equal(t, "T1", list[1].Body)
	assert.Equal(t, DirectionReceived, list[1].Direction)
	assert.Equal(t, "bob@example.com", list[1].Counterpart)
	assert.Equal(t, "2024-01-15 10:30", list[1].Timestamp)
}

func Test_MessageService_Delete(t *testing.T) {
	testCases := []struct {
		name        string
		caller      string
		index       int
		expectError error
	}{
		{name: "Success - recipient deletes", caller: "ana@example.com", index: 0},
		{name: "Error - sender may not delete", caller: "bob@example.com", index: 0, expectError: serrors.ErrForbidden},
		{name: "Error - stranger sees no such message", caller: "cid@example.com", index: 0, expectError: serrors.ErrIndexOutOfRange},
		{name: "Error - index out of range", caller: "ana@example.com", index: 4, expectError: serrors.ErrIndexOutOfRange},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newMessagesFixture(t)
			f.dispatcher.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
			_, err := f.service.Send(context.Background(), "bob@example.com", "ana@example.com", "Bike", "hello")
			require.NoError(t, err)

			// when
			err = f.service.Delete(context.Background(), tc.caller, tc.index)

			// then
			remaining, listErr := f.store.ListFor("ana@example.com")
			require.NoError(t, listErr)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Len(t, remaining, 1)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, remaining)
		})
	}
}

func Test_MessageService_CountUnread(t *testing.T) {
	// given
	f := newMessagesFixture(t)
	f.dispatcher.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	for _, pair := range [][2]string{
		{"bob@example.com", "ana@example.com"},
		{"ana@example.com", "bob@example.com"},
		{"cid@example.com", "ana@example.com"},
	} {
		_, err := f.service.Send(context.Background(), pair[0], pair[1], "Bike", "hi")
		require.NoError(t, err)
	}

	// when
	count, err := f.service.CountUnread(context.Background(), "ana@example.com")

	// then
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(3), f.counter(t, "notifications_failed"))
}
