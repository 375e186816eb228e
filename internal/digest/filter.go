package digest

import (
	"iter"
	"time"

	"cetldigest/internal/models"
)

// Window is the interval of start times a digest covers. Both ends are exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window starting at local midnight of now and
// spanning the given number of calendar days.
func NewWindow(now time.Time, days int) Window {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 0, days)}
}

// Contains reports whether t lies strictly inside the window.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.Start) && t.Before(w.End)
}

// Filter yields the events owned by organizerID that start strictly inside w.
//
// events must be sorted by start time ascending: the sequence stops at the
// first matching event that starts at or after w.End.
func Filter(events []*models.Event, organizerID string, w Window) iter.Seq[*models.Event] {
	return func(yield func(*models.Event) bool) {
		for _, ev := range events {
			if ev.OrganizerID != organizerID {
				continue
			}
			if !ev.Start.Before(w.End) {
				return
			}
			if !w.Contains(ev.Start) {
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}
