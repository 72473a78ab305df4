package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	serrors "github.com/abgdnv/wallacore/internal/errors"
)

// RecordFile gives append, read and delete-by-position access to a comma-delimited
// file whose first row is a fixed header.
//
// Calls on one RecordFile are serialised, but nothing protects the file from other
// processes: RemoveAt is a plain read-modify-write of the whole file.
type RecordFile struct {
	mu     sync.Mutex
	path   string
	header []string
}

// NewRecordFile creates a RecordFile for path using header as its first row.
func NewRecordFile(path string, header []string) *RecordFile {
	return &RecordFile{
		path:   path,
		header: header,
	}
}

// ReadAll returns every row after the header, in file order.
// A missing file yields an empty slice. A row whose field count differs from the
// header fails the whole read with ErrMalformedRow.
func (f *RecordFile) ReadAll() ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readAllLocked()
}

// Append writes row at the end of the file, creating the file with its header first
// if needed, and returns the position of the new row. Existing rows are counted but
// not validated, so a historic row with the wrong field count does not block appends.
func (f *RecordFile) Append(row []string) (int, error) {
	if len(row) != len(f.header) {
		return -1, fmt.Errorf("row has %d fields, want %d: %w", len(row), len(f.header), serrors.ErrMalformedRow)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	position, err := f.countRowsLocked()
	if err != nil {
		return -1, err
	}

	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return -1, fmt.Errorf("failed to open %s for append: %w", f.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return -1, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}

	var records [][]string
	if info.Size() == 0 {
		records = append(records, f.header)
	}
	records = append(records, row)
	data, err := encode(records)
	if err != nil {
		return -1, err
	}
	// one write per row, so a row is never split across calls
	if _, err := file.Write(data); err != nil {
		return -1, fmt.Errorf("failed to append to %s: %w", f.path, err)
	}
	return position, nil
}

// RemoveAt deletes the row at the given zero-based position and rewrites the file.
// Returns ErrIndexOutOfRange if index does not address a current row.
func (f *RecordFile) RemoveAt(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows, err := f.readAllLocked()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("cannot remove row %d of %d in %s: %w", index, len(rows), f.path, serrors.ErrIndexOutOfRange)
	}
	rows = append(rows[:index], rows[index+1:]...)

	data, err := encode(append([][]string{f.header}, rows...))
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", f.path, err)
	}
	return nil
}

func (f *RecordFile) readAllLocked() ([][]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return [][]string{}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	rows := [][]string{}
	// skip the header row
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w: %w", f.path, serrors.ErrMalformedRow, err)
	}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w: %w", f.path, serrors.ErrMalformedRow, err)
		}
		if len(record) != len(f.header) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%s line %d has %d fields, want %d: %w",
				f.path, line, len(record), len(f.header), serrors.ErrMalformedRow)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// countRowsLocked returns the number of rows after the header without checking their
// field counts. Only a file that is not valid CSV at all is an error.
func (f *RecordFile) countRowsLocked() (int, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return -1, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	records := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return -1, fmt.Errorf("failed to read %s: %w: %w", f.path, serrors.ErrMalformedRow, err)
		}
		records++
	}
	// the first record is the header
	return max(records-1, 0), nil
}

// encode renders records as CSV.
func encode(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}
	return buf.Bytes(), nil
}
