package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cetldigest/internal/models"
)

// NoLogo is used as the group image when an event has no logo.
const NoLogo = "No Logo"

// ConflictPolicy decides which session supplies a group's image and description.
type ConflictPolicy int

const (
	// LastWins keeps the values of the last session processed.
	LastWins ConflictPolicy = iota
	// FirstWins keeps the values of the earliest session.
	FirstWins
	// ConflictError fails enrichment when sessions disagree.
	ConflictError
)

// ParseConflictPolicy maps a config value to a ConflictPolicy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-wins":
		return LastWins, nil
	case "first-wins":
		return FirstWins, nil
	case "error":
		return ConflictError, nil
	default:
		return LastWins, fmt.Errorf("unknown conflict policy %q", s)
	}
}

func (p ConflictPolicy) String() string {
	switch p {
	case FirstWins:
		return "first-wins"
	case ConflictError:
		return "error"
	default:
		return "last-wins"
	}
}

// DescriptionSource fetches the long description of a single event.
type DescriptionSource interface {
	GetDescription(ctx context.Context, eventID string) (string, error)
}

// Enricher resolves the image and description of each group.
type Enricher struct {
	source      DescriptionSource
	boilerplate string
	policy      ConflictPolicy
	logger      *slog.Logger
}

// NewEnricher creates a new Enricher. boilerplate is removed verbatim from
// every fetched description.
func NewEnricher(logger *slog.Logger, source DescriptionSource, boilerplate string, policy ConflictPolicy) *Enricher {
	return &Enricher{
		source:      source,
		boilerplate: boilerplate,
		policy:      policy,
		logger:      logger,
	}
}

// Enrich fetches one description per event and sets each group's
// ImageURL and Description according to the conflict policy.
// The first failed fetch aborts enrichment.
func (e *Enricher) Enrich(ctx context.Context, groups []*models.EventGroup) error {
	for _, g := range groups {
		for i, ev := range g.Events {
			raw, err := e.source.GetDescription(ctx, ev.ID)
			if err != nil {
				return fmt.Errorf("%w: description for event %s: %w", ErrProviderQuery, ev.ID, err)
			}
			ev.Description = e.CleanDescription(raw)
			image := ResolveImage(ev)

			e.logger.Debug("Enriched event", "group", g.Name, "id", ev.ID, "image", image)

			if i == 0 {
				g.ImageURL, g.Description = image, ev.Description
				continue
			}
			switch e.policy {
			case FirstWins:
			case ConflictError:
				if image != g.ImageURL || ev.Description != g.Description {
					return fmt.Errorf("%w: group %q event %s", ErrConflict, g.Name, ev.ID)
				}
			default:
				g.ImageURL, g.Description = image, ev.Description
			}
		}
	}
	return nil
}

// CleanDescription removes the boilerplate sentence and surrounding whitespace.
func (e *Enricher) CleanDescription(desc string) string {
	if e.boilerplate != "" {
		desc = strings.ReplaceAll(desc, e.boilerplate, "")
	}
	return strings.TrimSpace(desc)
}

// ResolveImage returns the event logo or NoLogo.
func ResolveImage(ev *models.Event) string {
	if ev.LogoURL == "" {
		return NoLogo
	}
	return ev.LogoURL
}
