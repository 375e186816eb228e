package digest

import (
	"iter"
	"regexp"
	"strings"

	"cetldigest/internal/models"
)

var parenthetical = regexp.MustCompile(`\(.+\)`)

// NormalizeName strips parenthetical qualifiers such as "(Zoom Session)"
// from an event name. Normalizing an already normalized name is a no-op.
func NormalizeName(name string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(name, ""))
}

// Group clusters events by normalized name. Groups come back in the order
// their name was first seen; events keep their input order within a group.
func Group(events iter.Seq[*models.Event]) []*models.EventGroup {
	var groups []*models.EventGroup
	byName := make(map[string]*models.EventGroup)

	for ev := range events {
		name := NormalizeName(ev.Name)
		g, ok := byName[name]
		if !ok {
			g = &models.EventGroup{Name: name}
			byName[name] = g
			groups = append(groups, g)
		}
		g.Events = append(g.Events, ev)
	}
	return groups
}
