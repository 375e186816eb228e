// Package calendar exports digest events as an iCalendar feed and
// publishes it to a WebDAV collection.
package calendar

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"cetldigest/internal/models"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const (
	ContentType = "text/calendar"
	productID   = "-//cetldigest//EN"
	uidDomain   = "eventbrite.com"
)

// Encode writes events as a VCALENDAR to w. stamp is used as DTSTAMP of
// every event so output only depends on its inputs.
func Encode(w io.Writer, events []*models.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	for _, ev := range events {
		cal.Children = append(cal.Children, toICal(ev, stamp))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode events to iCal format: %w", err)
	}
	return nil
}

// Bytes is Encode into a buffer.
func Bytes(events []*models.Event, stamp time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, events, stamp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toICal converts an internal Event model to an ical.Component (VEvent).
func toICal(ev *models.Event, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, UID(ev))
	ve.Props.SetText(ical.PropSummary, ev.Name)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.Start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.End)

	location := ev.VenueAddress
	if ev.Online {
		location = "Online Event"
	}
	if location != "" {
		ve.Props.SetText(ical.PropLocation, location)
	}
	if ev.URL != "" {
		ve.Props.SetText(ical.PropURL, ev.URL)
	}
	return ve
}

// UID returns a stable iCalendar UID for the event, or a random one when
// the event has no provider ID.
func UID(ev *models.Event) string {
	if ev.ID == "" {
		return uuid.New().String()
	}
	return ev.ID + "@" + uidDomain
}
