// Package errors provides custom error types for catalog and messaging operations.
package errors

import "errors"

// ErrIndexOutOfRange is returned when a positional index does not address an existing row.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrMalformedRow is returned when a record file row cannot be decoded.
var ErrMalformedRow = errors.New("malformed row")

// ErrDelivery is returned when a notification could not be delivered.
var ErrDelivery = errors.New("notification delivery failed")

// ErrNothingToSend is returned when a session has no active compose or reply intent.
var ErrNothingToSend = errors.New("no message is being composed")

// ErrForbidden is returned when the caller is not allowed to act on a row.
var ErrForbidden = errors.New("operation not permitted")
