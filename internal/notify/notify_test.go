package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NewMessageNotification(t *testing.T) {
	// when
	n := NewMessageNotification("bob@example.com", "Bike", "Is it available?")

	// then
	assert.Equal(t, "Nuevo mensaje sobre Bike en Wallacore", n.Subject)
	assert.Equal(t,
		"Hola,\n\nHas recibido un nuevo mensaje de bob@example.com sobre el producto Bike:\n\nIs it available?\n\nInicia sesión en Wallacore para responder.",
		n.Body)
}
