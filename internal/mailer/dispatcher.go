package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cetldigest/internal/models"
)

const subjectDateLayout = "01/02/2006"

// SubjectFormat builds the weekly subject line.
type SubjectFormat struct {
	Department string
	SourceTag  string
	SpanDays   int
}

// Subject returns e.g. "This week at CETL 05/06/2024 - 05/10/2024 (from FDMS)".
func (f SubjectFormat) Subject(today time.Time) string {
	last := today.AddDate(0, 0, f.SpanDays)
	return fmt.Sprintf("This week at %s %s - %s (from %s)",
		f.Department, today.Format(subjectDateLayout), last.Format(subjectDateLayout), f.SourceTag)
}

// Result is the outcome of a dispatch. Err is set when the provider
// failed; the dispatcher never raises it.
type Result struct {
	Response *Response
	Err      error
	Skipped  bool
}

// OK reports whether the message was accepted by the provider.
func (r Result) OK() bool {
	return r.Err == nil && !r.Skipped
}

// Dispatcher submits the rendered digest to a provider.
type Dispatcher struct {
	provider  Provider
	from      string
	subject   SubjectFormat
	skipEmpty bool
	logger    *slog.Logger
}

// NewDispatcher creates a new Dispatcher. With skipEmpty set, a blank body
// is not sent at all; otherwise it is sent and a warning is logged afterwards.
func NewDispatcher(logger *slog.Logger, provider Provider, from string, subject SubjectFormat, skipEmpty bool) *Dispatcher {
	return &Dispatcher{
		provider:  provider,
		from:      from,
		subject:   subject,
		skipEmpty: skipEmpty,
		logger:    logger,
	}
}

// Dispatch sends body to the recipients with the subject for today.
func (d *Dispatcher) Dispatch(ctx context.Context, body string, rcpts models.RecipientSet, today time.Time, attachments ...Attachment) Result {
	empty := strings.TrimSpace(body) == ""
	if empty && d.skipEmpty {
		d.logger.Warn("Email content is empty, not sending.")
		return Result{Skipped: true}
	}

	msg := &Message{
		From:        d.from,
		To:          rcpts.To,
		CC:          rcpts.CC,
		Subject:     d.subject.Subject(today),
		HTML:        body,
		Attachments: attachments,
	}
	d.logger.Info("Sending digest email",
		"provider", d.provider.Name(),
		"subject", msg.Subject,
		"to", len(msg.To),
		"cc", len(msg.CC),
	)

	var res Result
	resp, err := d.provider.Send(ctx, msg)
	res.Response = resp
	if resp != nil {
		d.logger.Info("Email response",
			"status", resp.StatusCode,
			"body", resp.Body,
			"headers", resp.Headers,
		)
	}
	if err != nil {
		de := &DeliveryError{Provider: d.provider.Name(), Err: err}
		if resp != nil {
			de.StatusCode = resp.StatusCode
		}
		res.Err = de
		d.logger.Error("Error sending email", "error", de)
	}

	if empty {
		d.logger.Warn("Email content is empty.")
	}
	return res
}
