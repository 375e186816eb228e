package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/resend/resend-go/v2"
)

// ResendProvider implements email sending via the Resend API.
type ResendProvider struct {
	client *resend.Client
}

// NewResendProvider creates a new Resend email provider.
func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

// Name returns the provider name.
func (p *ResendProvider) Name() string {
	return "resend"
}

// Send sends an email via the Resend API.
func (p *ResendProvider) Send(ctx context.Context, msg *Message) (*Response, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Cc:      msg.CC,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, att := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Content:     att.Content,
			Filename:    att.Filename,
			ContentType: att.ContentType,
		})
	}

	sent, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("resend send failed: %w", err)
	}
	return &Response{StatusCode: http.StatusOK, Body: sent.Id}, nil
}
