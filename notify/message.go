package notify

import "context"

// Message is one notification job: a subject, its recipients and the
// rendered bodies. It is never persisted.
type Message struct {
	Subject    string
	Recipients []string
	HTML       string
	Text       string
}

// Envelope is a single delivery of a Message to one recipient.
type Envelope struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one envelope through an email provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, env Envelope) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, env Envelope) error

// Name implements Sender.
func (f SenderFunc) Name() string {
	return "func"
}

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}
