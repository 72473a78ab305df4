package store

import (
	"fmt"
	"slices"
	"time"

	serrors "github.com/abgdnv/wallacore/internal/errors"
)

// MessageHeader names the columns of the message log.
var MessageHeader = []string{"fecha", "remitente", "destinatario", "producto", "mensaje"}

// TimestampLayout is the minute-resolution layout of the fecha column.
const TimestampLayout = "2006-01-02 15:04"

// Message represents one note from a sender to a recipient about a product.
type Message struct {
	// Index is the row position in the unfiltered, unsorted log at read time.
	Index     int
	Timestamp time.Time
	Sender    string
	Recipient string
	Product   string
	Body      string
}

// MessageStore implements MessageLog on top of a RecordFile.
type MessageStore struct {
	file     *RecordFile
	clock    Clock
	location *time.Location
}

var _ MessageLog = (*MessageStore)(nil)

// NewMessageStore creates a message log backed by the file at path.
// Timestamps are written and read in the local time zone.
func NewMessageStore(path string, clock Clock) *MessageStore {
	return &MessageStore{
		file:     NewRecordFile(path, MessageHeader),
		clock:    clock,
		location: time.Local,
	}
}

// ListFor returns the messages where email is the sender or the recipient,
// most recent first. Messages stamped with the same minute come out in reverse file order.
func (s *MessageStore) ListFor(email string) ([]Message, error) {
	rows, err := s.file.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	messages := make([]Message, 0)
	for i, row := range rows {
		if row[1] != email && row[2] != email {
			continue
		}
		m, err := s.decode(i, row)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	slices.Reverse(messages)
	slices.SortStableFunc(messages, func(a, b Message) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return messages, nil
}

// Append writes a message stamped with the current time truncated to the minute.
// The log file and its header are created on first use.
func (s *MessageStore) Append(sender, recipient, product, body string) (*Message, error) {
	m := Message{
		Timestamp: s.clock.Now().In(s.location).Truncate(time.Minute),
		Sender:    sender,
		Recipient: recipient,
		Product:   product,
		Body:      body,
	}
	index, err := s.file.Append([]string{m.Timestamp.Format(TimestampLayout), sender, recipient, product, body})
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	m.Index = index
	return &m, nil
}

// RemoveAt deletes the message at the given position of the unfiltered, unsorted log.
func (s *MessageStore) RemoveAt(index int) error {
	if err := s.file.RemoveAt(index); err != nil {
		return fmt.Errorf("failed to remove message: %w", err)
	}
	return nil
}

// CountUnread returns how many of the messages listed for email were received by it.
// There is no read flag: every received message counts.
func (s *MessageStore) CountUnread(email string) (int, error) {
	messages, err := s.ListFor(email)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range messages {
		if m.Recipient == email {
			count++
		}
	}
	return count, nil
}

func (s *MessageStore) decode(index int, row []string) (Message, error) {
	ts, err := time.ParseInLocation(TimestampLayout, row[0], s.location)
	if err != nil {
		return Message{}, fmt.Errorf("message row %d has invalid timestamp %q: %w", index, row[0], serrors.ErrMalformedRow)
	}
	return Message{
		Index:     index,
		Timestamp: ts,
		Sender:    row[1],
		Recipient: row[2],
		Product:   row[3],
		Body:      row[4],
	}, nil
}
