// Package workflow holds the per-session "message a vendor / reply to a message" state.
package workflow

// Intent is what a session is about to send. Exactly one of Idle, Composing or Replying.
type Intent interface {
	// Kind names the intent for clients.
	Kind() string
	isIntent()
}

// Idle means nothing is being written.
type Idle struct{}

// Composing is a first message to the vendor of a product.
type Composing struct {
	Product     string `json:"product"`
	VendorEmail string `json:"vendor_email"`
	VendorName  string `json:"vendor_name"`
}

// Replying is an answer to a received message.
type Replying struct {
	MessageIndex int    `json:"message_index"`
	Destinatary  string `json:"destinatary"`
	Product      string `json:"product"`
}

func (Idle) Kind() string      { return "idle" }
func (Composing) Kind() string { return "composing" }
func (Replying) Kind() string  { return "replying" }

func (Idle) isIntent()      {}
func (Composing) isIntent() {}
func (Replying) isIntent()  {}

// target returns the recipient and product of an active intent.
func target(intent Intent) (recipient, product string, ok bool) {
	switch in := intent.(type) {
	case Composing:
		return in.VendorEmail, in.Product, true
	case Replying:
		return in.Destinatary, in.Product, true
	default:
		return "", "", false
	}
}
