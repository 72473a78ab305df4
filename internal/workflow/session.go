package workflow

import (
	"context"
	"fmt"
	"sync"

	serrors "github.com/abgdnv/wallacore/internal/errors"
)

// Sender appends a message to the message log and notifies its recipient.
type Sender interface {
	Send(ctx context.Context, sender, recipient, product, body string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, sender, recipient, product, body string) error

func (f SenderFunc) Send(ctx context.Context, sender, recipient, product, body string) error {
	return f(ctx, sender, recipient, product, body)
}

// Session holds the intent of one user session. The zero value is Idle.
type Session struct {
	mu     sync.Mutex
	intent Intent
}

// NewSession creates an idle session.
func NewSession() *Session {
	return &Session{intent: Idle{}}
}

// Intent returns the current intent.
func (s *Session) Intent() Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

// MessageVendor starts a first message about product to its vendor, replacing any pending intent.
func (s *Session) MessageVendor(product, vendorName, vendorEmail string) Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = Composing{Product: product, VendorEmail: vendorEmail, VendorName: vendorName}
	return s.intent
}

// Reply starts an answer to the message at messageIndex, replacing any pending intent.
func (s *Session) Reply(messageIndex int, destinatary, product string) Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = Replying{MessageIndex: messageIndex, Destinatary: destinatary, Product: product}
	return s.intent
}

// Send delivers text for the pending intent on behalf of currentUser and returns to Idle.
// The intent is kept when sending fails so the user can retry.
// Returns ErrNothingToSend when the session is Idle.
func (s *Session) Send(ctx context.Context, sender Sender, currentUser, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipient, product, ok := target(s.current())
	if !ok {
		return serrors.ErrNothingToSend
	}
	if err := sender.Send(ctx, currentUser, recipient, product, text); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", recipient, err)
	}
	s.intent = Idle{}
	return nil
}

// Cancel discards the pending intent.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = Idle{}
}

func (s *Session) current() Intent {
	if s.intent == nil {
		return Idle{}
	}
	return s.intent
}
