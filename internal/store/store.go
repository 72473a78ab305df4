// Package store provides flat-file persistence for the product catalog and the message log.
package store

import "time"

// Catalog is an interface for product catalog storage operations.
// Products are addressed by their position in the unfiltered catalog at read time.
type Catalog interface {
	// List returns every product in file order.
	// Returns an empty slice if the catalog file does not exist.
	List() ([]Product, error)

	// ListBySeller returns the products whose seller email equals email, in file order.
	ListBySeller(email string) ([]Product, error)

	// Add appends a product to the catalog and returns it with its position.
	Add(product Product) (*Product, error)

	// RemoveAt deletes the product at the given position of the unfiltered catalog.
	// Returns ErrIndexOutOfRange if no such row exists.
	RemoveAt(index int) error
}

// MessageLog is an interface for message log storage operations.
// Messages are addressed by their position in the unfiltered, unsorted log at read time.
type MessageLog interface {
	// ListFor returns the messages sent or received by email, most recent first.
	ListFor(email string) ([]Message, error)

	// Append writes a new message stamped with the current minute.
	Append(sender, recipient, product, body string) (*Message, error)

	// RemoveAt deletes the message at the given position of the unfiltered log.
	// Returns ErrIndexOutOfRange if no such row exists.
	RemoveAt(index int) error

	// CountUnread returns the number of messages addressed to email.
	CountUnread(email string) (int, error)
}

// Clock abstracts time retrieval so message timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
