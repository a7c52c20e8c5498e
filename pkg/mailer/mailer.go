package mailer

import (
	"context"
	"log"
)

// Mailer delivers plain-text messages to a fixed recipient, best effort.
// Callers must treat delivery failure as non-fatal.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// ConsoleMailer logs messages instead of sending them. Used in development
// and tests where no SendGrid key is configured.
type ConsoleMailer struct{}

func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

func (m *ConsoleMailer) Send(_ context.Context, subject, body string) error {
	log.Printf("[mail] %s\n%s", subject, body)
	return nil
}
