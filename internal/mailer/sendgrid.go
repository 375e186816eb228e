package mailer

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	DefaultSendGridHost = "https://api.sendgrid.com"
	sendGridEndpoint    = "/v3/mail/send"
)

// SendGridProvider implements email sending via the SendGrid v3 API.
type SendGridProvider struct {
	apiKey string
	host   string
}

// NewSendGridProvider creates a new SendGrid email provider.
func NewSendGridProvider(apiKey, host string) *SendGridProvider {
	if host == "" {
		host = DefaultSendGridHost
	}
	return &SendGridProvider{apiKey: apiKey, host: host}
}

// Name returns the provider name.
func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

// Send sends an email via the SendGrid API.
func (p *SendGridProvider) Send(ctx context.Context, msg *Message) (*Response, error) {
	req := sendgrid.GetRequest(p.apiKey, sendGridEndpoint, p.host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(buildSendGridMail(msg))

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sendgrid request failed: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Headers:    resp.Headers,
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, fmt.Errorf("sendgrid rejected message: %s", resp.Body)
	}
	return out, nil
}

func buildSendGridMail(msg *Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", msg.From))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, addr := range msg.To {
		p.AddTos(mail.NewEmail("", addr))
	}
	for _, addr := range msg.CC {
		p.AddCCs(mail.NewEmail("", addr))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", msg.HTML))

	for _, att := range msg.Attachments {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		a.SetType(att.ContentType)
		a.SetFilename(att.Filename)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}
	return m
}
