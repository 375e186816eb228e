// Package runner orchestrates one digest run: build, render, optional
// calendar feed, and delivery.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cetldigest/internal/calendar"
	"cetldigest/internal/config"
	"cetldigest/internal/digest"
	"cetldigest/internal/mailer"
	"cetldigest/internal/models"
	"cetldigest/internal/recipients"

	"github.com/google/uuid"
)

// Publisher uploads the calendar feed somewhere subscribers can reach it.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte) error
}

// Output is everything a run produced before delivery.
type Output struct {
	Today    time.Time
	Digest   *digest.Digest
	Body     string
	Calendar []byte
}

// Runner orchestrates the digest pipeline.
type Runner struct {
	logger     *slog.Logger
	cfg        *config.Config
	builder    *digest.Builder
	renderer   *digest.Renderer
	dispatcher *mailer.Dispatcher
	publisher  Publisher
	loc        *time.Location
	now        func() time.Time
}

// NewRunner creates a new Runner. publisher may be nil.
func NewRunner(logger *slog.Logger, cfg *config.Config, source digest.EventSource, provider mailer.Provider, publisher Publisher) (*Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := digest.ParseConflictPolicy(cfg.Digest.ConflictPolicy)
	if err != nil {
		return nil, err
	}
	if policy != digest.LastWins {
		logger.Info("Using non-default conflict policy for group image and description", "policy", policy.String())
	}

	enricher := digest.NewEnricher(logger, source, cfg.Digest.Boilerplate, policy)
	subject := mailer.SubjectFormat{
		Department: cfg.Mail.Department,
		SourceTag:  cfg.Mail.SourceTag,
		SpanDays:   cfg.Mail.SubjectSpanDays,
	}

	return &Runner{
		logger:     logger,
		cfg:        cfg,
		builder:    digest.NewBuilder(logger, source, enricher, cfg.Eventbrite.OrganizationID, cfg.Eventbrite.OrganizerID),
		renderer:   &digest.Renderer{BannerURL: cfg.Digest.BannerURL, Heading: cfg.Digest.Heading},
		dispatcher: mailer.NewDispatcher(logger, provider, cfg.Mail.From, subject, cfg.Mail.SkipEmptyBody),
		publisher:  publisher,
		loc:        loc,
		now:        time.Now,
	}, nil
}

// Prepare builds and renders the digest without delivering it.
func (r *Runner) Prepare(ctx context.Context) (*Output, error) {
	today := r.now().In(r.loc)
	w := digest.NewWindow(today, r.cfg.WindowDays)

	d, err := r.builder.Build(ctx, w)
	if err != nil {
		return nil, err
	}
	if len(d.Groups) == 0 {
		r.logger.Warn("No events found in window", "windowStart", w.Start, "windowEnd", w.End)
	}

	body, err := r.renderer.Render(d.Groups)
	if err != nil {
		return nil, &digest.StageError{Stage: digest.StageRender, Err: err}
	}

	out := &Output{Today: today, Digest: d, Body: body}
	if r.cfg.Mail.AttachCalendar || r.publisher != nil {
		out.Calendar = r.buildCalendar(d, today)
	}
	return out, nil
}

// buildCalendar encodes the digest's events as .ics. The feed is optional:
// an empty week or an encoding failure yields nil and the run carries on.
func (r *Runner) buildCalendar(d *digest.Digest, today time.Time) []byte {
	events := d.Events()
	if len(events) == 0 {
		r.logger.Info("No events in window, skipping calendar feed")
		return nil
	}
	ics, err := calendar.Bytes(events, today)
	if err != nil {
		r.logger.Error("Failed to build calendar feed", "error", &digest.StageError{Stage: digest.StageCalendar, Err: err})
		return nil
	}
	return ics
}

// Run performs one full digest run. Upstream failures are returned as
// *digest.StageError. A failed delivery is logged and only returned when
// strict delivery is configured.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.logger.With("run_id", uuid.New().String())
	logger.Info("Starting digest run.")

	out, err := r.Prepare(ctx)
	if err != nil {
		return err
	}

	rcpts, err := recipients.Load(r.cfg.Mail.RecipientsFile)
	if err != nil {
		return &digest.StageError{Stage: digest.StageRecipients, Err: err}
	}
	logger.Info("Loaded recipients", "to", len(rcpts.To), "cc", len(rcpts.CC))

	if r.publisher != nil && out.Calendar != nil {
		if err := r.publisher.Publish(ctx, r.cfg.Calendar.FileName, out.Calendar); err != nil {
			logger.Error("Failed to publish calendar feed", "error", err)
		}
	}

	res := r.dispatch(ctx, out, rcpts)
	if res.Err != nil && r.cfg.Mail.StrictDelivery {
		return fmt.Errorf("digest delivery failed: %w", res.Err)
	}

	logger.Info("Digest run finished.", "delivered", res.OK(), "skipped", res.Skipped)
	return nil
}

func (r *Runner) dispatch(ctx context.Context, out *Output, rcpts models.RecipientSet) mailer.Result {
	var attachments []mailer.Attachment
	if r.cfg.Mail.AttachCalendar && out.Calendar != nil {
		attachments = append(attachments, mailer.Attachment{
			Filename:    r.cfg.Calendar.FileName,
			ContentType: calendar.ContentType,
			Content:     out.Calendar,
		})
	}
	return r.dispatcher.Dispatch(ctx, out.Body, rcpts, out.Today, attachments...)
}
