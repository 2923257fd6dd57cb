package mailer

import (
	"context"
	"net/mail"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To          mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

// HasContent reports whether the message carries a body.
func (m Message) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

// Mailer delivers a single message. A nil error means the provider accepted it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
