// Package mailer delivers the rendered digest through an email API.
// Providers are interchangeable; the Dispatcher owns subject, sender and
// the best-effort delivery policy.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
)

// Attachment is a file attached to the digest email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one email to be submitted to a provider.
type Message struct {
	From        string
	To          []string
	CC          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Response is what the provider answered.
type Response struct {
	StatusCode int
	Body       string
	Headers    map[string][]string
}

// Provider is the interface that all email providers must implement.
type Provider interface {
	// Name returns the provider name (e.g., "sendgrid", "ses").
	Name() string
	// Send submits the message. A non-nil error means the provider
	// rejected the message or could not be reached.
	Send(ctx context.Context, msg *Message) (*Response, error)
}

// Options carries the credentials needed by the providers.
type Options struct {
	SendGridAPIKey string
	SendGridHost   string
	ResendAPIKey   string
	SESRegion      string
}

// New builds the provider registered under name.
func New(ctx context.Context, logger *slog.Logger, name string, opts Options) (Provider, error) {
	switch name {
	case "sendgrid":
		return NewSendGridProvider(opts.SendGridAPIKey, opts.SendGridHost), nil
	case "resend":
		return NewResendProvider(opts.ResendAPIKey), nil
	case "ses":
		return NewSESProvider(ctx, logger, opts.SESRegion)
	case "log":
		return NewLogProvider(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", name)
	}
}

// DeliveryError reports a rejected or failed submission.
type DeliveryError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: delivery failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: delivery failed: %v", e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
