package models

import "time"

// Event represents a single event occurrence as returned by the events provider.
// This is an internal representation, independent of the provider's wire format.
type Event struct {
	ID           string    // Provider identifier, used to fetch the description
	Name         string    // Raw event name, may carry a parenthetical qualifier
	OrganizerID  string    // Organizer that owns the event
	Start        time.Time // Local wall-clock start, no timezone conversion
	End          time.Time // Local wall-clock end
	Online       bool      // True for online-only events
	VenueAddress string    // First address line of the venue, empty when unknown
	URL          string    // Registration (RSVP) URL
	LogoURL      string    // Event logo, empty when the event has none
	Description  string    // Cleaned description, filled in during enrichment
}

// EventGroup clusters repeated sessions of the same event under one display name.
type EventGroup struct {
	Name        string   // Normalized display name
	Events      []*Event // Sessions in chronological order
	ImageURL    string   // Representative image for the group
	Description string   // Representative description for the group
}

// RecipientSet holds the ordered To and CC address lists for the digest.
type RecipientSet struct {
	To []string
	CC []string
}
