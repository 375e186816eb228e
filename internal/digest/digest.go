// Package digest turns the raw event listing into the grouped, enriched
// and rendered weekly digest.
package digest

import (
	"context"
	"fmt"
	"log/slog"

	"cetldigest/internal/models"
)

// EventSource is the events provider the digest is built from.
type EventSource interface {
	DescriptionSource
	// ListEvents returns the live events of an organization sorted by start time ascending.
	ListEvents(ctx context.Context, organizationID string) ([]*models.Event, error)
}

// Digest is the outcome of one build.
type Digest struct {
	Window Window
	Groups []*models.EventGroup
}

// Events returns every session of the digest in group order.
func (d *Digest) Events() []*models.Event {
	var events []*models.Event
	for _, g := range d.Groups {
		events = append(events, g.Events...)
	}
	return events
}

// Builder runs the fetch, filter, group and enrich stages.
type Builder struct {
	logger         *slog.Logger
	source         EventSource
	enricher       *Enricher
	organizationID string
	organizerID    string
}

// NewBuilder creates a new Builder.
func NewBuilder(logger *slog.Logger, source EventSource, enricher *Enricher, organizationID, organizerID string) *Builder {
	return &Builder{
		logger:         logger,
		source:         source,
		enricher:       enricher,
		organizationID: organizationID,
		organizerID:    organizerID,
	}
}

// Build fetches the organization's events and returns the enriched groups
// for the window. Failures are reported as *StageError.
func (b *Builder) Build(ctx context.Context, w Window) (*Digest, error) {
	b.logger.Info("Building digest", "windowStart", w.Start, "windowEnd", w.End)

	events, err := b.source.ListEvents(ctx, b.organizationID)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Err: fmt.Errorf("%w: %w", ErrProviderQuery, err)}
	}
	b.logger.Info("Fetched events", "count", len(events), "organizationID", b.organizationID)

	groups := Group(Filter(events, b.organizerID, w))

	if err := b.enricher.Enrich(ctx, groups); err != nil {
		return nil, &StageError{Stage: StageEnrich, Err: err}
	}

	d := &Digest{Window: w, Groups: groups}
	b.logger.Info("Digest built", "groups", len(groups), "events", len(d.Events()))
	return d, nil
}
