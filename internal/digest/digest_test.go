package digest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cetldigest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrganizer = "3741604165"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// at returns a wall-clock time on May 2024 in UTC.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.May, day, hour, minute, 0, 0, time.UTC)
}

func event(id, name string, start time.Time) *models.Event {
	return &models.Event{
		ID:          id,
		Name:        name,
		OrganizerID: testOrganizer,
		Start:       start,
		End:         start.Add(time.Hour),
		URL:         "https://www.eventbrite.com/e/" + id,
	}
}

type fakeSource struct {
	events       []*models.Event
	listErr      error
	descriptions map[string]string
	descErr      map[string]error
	calls        []string
}

func (f *fakeSource) ListEvents(ctx context.Context, organizationID string) ([]*models.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeSource) GetDescription(ctx context.Context, eventID string) (string, error) {
	f.calls = append(f.calls, eventID)
	if err := f.descErr[eventID]; err != nil {
		return "", err
	}
	return f.descriptions[eventID], nil
}

func TestBuilder_Build(t *testing.T) {
	src := &fakeSource{
		events: []*models.Event{
			event("1", "Intro Workshop (Fall)", at(7, 10, 0)),
			event("2", "Intro Workshop", at(8, 10, 0)),
			event("3", "Advanced Workshop", at(9, 10, 0)),
			event("4", "Next Week", at(14, 10, 0)),
		},
		descriptions: map[string]string{"1": "a", "2": "b", "3": "c"},
	}
	enricher := NewEnricher(discardLogger(), src, "", LastWins)
	b := NewBuilder(discardLogger(), src, enricher, "org", testOrganizer)

	d, err := b.Build(context.Background(), NewWindow(at(6, 9, 30), 7))
	require.NoError(t, err)

	require.Len(t, d.Groups, 2)
	assert.Equal(t, "Intro Workshop", d.Groups[0].Name)
	assert.Equal(t, "b", d.Groups[0].Description)
	assert.Equal(t, "Advanced Workshop", d.Groups[1].Name)
	assert.Len(t, d.Events(), 3)
	assert.Equal(t, []string{"1", "2", "3"}, src.calls)
}

func TestBuilder_ListFailureIsFetchStage(t *testing.T) {
	src := &fakeSource{listErr: errors.New("boom")}
	b := NewBuilder(discardLogger(), src, NewEnricher(discardLogger(), src, "", LastWins), "org", testOrganizer)

	_, err := b.Build(context.Background(), NewWindow(at(6, 0, 0), 7))
	require.Error(t, err)

	stage, ok := StageOf(err)
	assert.True(t, ok)
	assert.Equal(t, StageFetch, stage)
	assert.ErrorIs(t, err, ErrProviderQuery)
}

func TestBuilder_DescriptionFailureIsEnrichStage(t *testing.T) {
	src := &fakeSource{
		events:  []*models.Event{event("1", "Intro", at(7, 10, 0))},
		descErr: map[string]error{"1": errors.New("malformed")},
	}
	b := NewBuilder(discardLogger(), src, NewEnricher(discardLogger(), src, "", LastWins), "org", testOrganizer)

	_, err := b.Build(context.Background(), NewWindow(at(6, 0, 0), 7))
	require.Error(t, err)

	stage, _ := StageOf(err)
	assert.Equal(t, StageEnrich, stage)
	assert.ErrorIs(t, err, ErrProviderQuery)
}
