// Package notify delivers "new message" notifications to message recipients.
package notify

import (
	"context"
	"fmt"
)

// Dispatcher delivers one notification. Failures wrap errors.ErrDelivery.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notification is a rendered notification mail.
type Notification struct {
	Subject string
	Body    string
}

const (
	subjectTemplate = "Nuevo mensaje sobre %s en Wallacore"
	bodyTemplate    = "Hola,\n\nHas recibido un nuevo mensaje de %s sobre el producto %s:\n\n%s\n\nInicia sesión en Wallacore para responder."
)

// NewMessageNotification renders the notification sent to the recipient of a new message.
func NewMessageNotification(sender, product, text string) Notification {
	return Notification{
		Subject: fmt.Sprintf(subjectTemplate, product),
		Body:    fmt.Sprintf(bodyTemplate, sender, product, text),
	}
}
