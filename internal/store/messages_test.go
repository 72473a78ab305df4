package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessageStore(t *testing.T) (*MessageStore, *testutil.StubClock) {
	t.Helper()
	clock := testutil.FixedClock()
	return NewMessageStore(filepath.Join(t.TempDir(), "mensajes.csv"), clock), clock
}

func bodies(messages []Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Body)
	}
	return out
}

func Test_MessageStore_Append_CreatesFileWithHeader(t *testing.T) {
	// given
	s, clock := newTestMessageStore(t)
	clock.Advance(42 * time.Second)

	// when
	m, err := s.Append("bob@example.com", "ana@example.com", "Bike", "Is it available?")

	// then
	require.NoError(t, err)
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, "2024-01-15 10:30", m.Timestamp.Format(TimestampLayout))
	data, err := os.ReadFile(s.file.path)
	require.NoError(t, err)
	assert.Equal(t,
		"fecha,remitente,destinatario,producto,mensaje\n"+
			"2024-01-15 10:30,bob@example.com,ana@example.com,Bike,Is it available?\n",
		string(data))
}

func Test_MessageStore_ListFor_OrdersMostRecentFirst(t *testing.T) {
	// given
	s, clock := newTestMessageStore(t)
	_, err := s.Append("bob@example.com", "ana@example.com", "Bike", "T1")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = s.Append("ana@example.com", "bob@example.com", "Bike", "T2")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = s.Append("cid@example.com", "dan@example.com", "Sofa", "unrelated")
	require.NoError(t, err)
	_, err = s.Append("bob@example.com", "ana@example.com", "Bike", "T3")
	require.NoError(t, err)

	// when
	list, err := s.ListFor("ana@example.com")

	// then
	require.NoError(t, err)
	assert.Equal(t, []string{"T3", "T2", "T1"}, bodies(list))
	assert.Equal(t, []int{3, 1, 0}, []int{list[0].Index, list[1].Index, list[2].Index})
}

func Test_MessageStore_ListFor_TiesKeepReversedFileOrder(t *testing.T) {
	// given
	s, clock := newTestMessageStore(t)
	for _, body := range []string{"first", "second", "third"} {
		_, err := s.Append("bob@example.com", "ana@example.com", "Bike", body)
		require.NoError(t, err)
	}
	clock.Advance(-time.Hour)
	_, err := s.Append("bob@example.com", "ana@example.com", "Bike", "older")
	require.NoError(t, err)

	// when
	list, err := s.ListFor("ana@example.com")

	// then
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first", "older"}, bodies(list))
}

func Test_MessageStore_ListFor_MissingFile(t *testing.T) {
	// given
	s, _ := newTestMessageStore(t)
	// when
	list, err := s.ListFor("ana@example.com")
	// then
	require.NoError(t, err)
	assert.Empty(t, list)
}

func Test_MessageStore_CountUnread(t *testing.T) {
	// given 2 received and 3 sent messages for ana
	s, clock := newTestMessageStore(t)
	appends := [][2]string{
		{"bob@example.com", "ana@example.com"},
		{"ana@example.com", "bob@example.com"},
		{"ana@example.com", "cid@example.com"},
		{"cid@example.com", "ana@example.com"},
		{"ana@example.com", "bob@example.com"},
		{"bob@example.com", "cid@example.com"},
	}
	for _, a := range appends {
		_, err := s.Append(a[0], a[1], "Bike", "hello")
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	testCases := []struct {
		name     string
		email    string
		expected int
	}{
		{name: "ana received two", email: "ana@example.com", expected: 2},
		{name: "bob received two", email: "bob@example.com", expected: 2},
		{name: "cid received two", email: "cid@example.com", expected: 2},
		{name: "stranger received none", email: "dan@example.com", expected: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			count, err := s.CountUnread(tc.email)
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expected, count)
		})
	}

	// counting never changes the result
	again, err := s.CountUnread("ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, again)
}

func Test_MessageStore_RemoveAt_UsesFilePosition(t *testing.T) {
	// given
	s, clock := newTestMessageStore(t)
	_, err := s.Append("bob@example.com", "ana@example.com", "Bike", "old")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = s.Append("cid@example.com", "dan@example.com", "Sofa", "other")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = s.Append("bob@example.com", "ana@example.com", "Bike", "new")
	require.NoError(t, err)

	list, err := s.ListFor("ana@example.com")
	require.NoError(t, err)
	require.Equal(t, "old", list[1].Body)

	// when removing the second entry of the sorted, filtered view by its file index
	require.NoError(t, s.RemoveAt(list[1].Index))

	// then
	list, err = s.ListFor("ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, bodies(list))
	other, err := s.ListFor("dan@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, bodies(other))
}

func Test_MessageStore_RemoveAt_OutOfRange(t *testing.T) {
	// given
	s, _ := newTestMessageStore(t)
	_, err := s.Append("bob@example.com", "ana@example.com", "Bike", "hello")
	require.NoError(t, err)
	// when
	err = s.RemoveAt(3)
	// then
	assert.ErrorIs(t, err, serrors.ErrIndexOutOfRange)
}

func Test_MessageStore_InvalidTimestamp(t *testing.T) {
	// given
	s, _ := newTestMessageStore(t)
	content := "fecha,remitente,destinatario,producto,mensaje\n" +
		"yesterday,bob@example.com,ana@example.com,Bike,hello\n"
	require.NoError(t, os.WriteFile(s.file.path, []byte(content), 0o644))

	// when
	_, err := s.ListFor("ana@example.com")

	// then
	assert.ErrorIs(t, err, serrors.ErrMalformedRow)
}
