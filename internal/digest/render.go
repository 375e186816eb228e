package digest

import (
	"bytes"
	"fmt"
	"html/template"

	"cetldigest/internal/models"
)

const (
	DayLayout  = "Monday, January 02, 2006"
	TimeLayout = "03:04 PM"

	OnlineLocation = "Online Event"
)

var (
	bannerTmpl = template.Must(template.New("banner").Parse(`<table width="600" cellpadding="0" cellspacing="0" border="0">
<tr height="40">
<td colspan="4">
<img width="600" src="{{.BannerURL}}" alt="{{.Heading}}" title="{{.Heading}}">
<font face="Arial"><h1>{{.Heading}}</h1></font>
</td>
</tr>
`))

	groupTmpl = template.Must(template.New("group").Parse(`<tr>
<td colspan="4">
<p><img src="{{.ImageURL}}" alt="{{.Name}}" title="{{.Name}}" height="150" width="300"><br>
<font face="Arial" style="font-size: 11pt">{{.Description}}</font></p>
</td>
</tr>
`))

	detailTmpl = template.Must(template.New("detail").Parse(`<tr>
<td colspan="4">
<div>
<strong><br><font face="Arial" size="3">{{.Day}}<br>{{.Start}} - {{.End}}<br>Location: {{.Location}}<br>
<a href="{{.URL}}">Click here to RSVP</a>
</font></strong>
</div>
</td>
</tr>
`))
)

const (
	spacerRow = `<tr height="30"><td colspan="4"></td></tr>` + "\n"
	tableEnd  = "</table>\n"
)

type groupView struct {
	Name     string
	ImageURL string
	// Descriptions come from the events provider as HTML and are trusted.
	Description template.HTML
}

// URL fields stay plain strings: html/template percent-encodes them, so the
// "No Logo" and "No Registration URL" placeholders render as No%20Logo.
type detailView struct {
	Day      string
	Start    string
	End      string
	Location string
	URL      string
}

// Renderer assembles the digest email body.
type Renderer struct {
	BannerURL string
	Heading   string
}

// Render writes the banner, then for every group its description block,
// one detail row per session and a spacer row.
func (r *Renderer) Render(groups []*models.EventGroup) (string, error) {
	var body bytes.Buffer

	if err := bannerTmpl.Execute(&body, r); err != nil {
		return "", fmt.Errorf("failed to render banner: %w", err)
	}

	for _, g := range groups {
		gv := groupView{
			Name:        g.Name,
			ImageURL:    g.ImageURL,
			Description: template.HTML(g.Description),
		}
		if err := groupTmpl.Execute(&body, gv); err != nil {
			return "", fmt.Errorf("failed to render group %q: %w", g.Name, err)
		}

		for _, ev := range g.Events {
			if err := detailTmpl.Execute(&body, detail(ev)); err != nil {
				return "", fmt.Errorf("failed to render event %s: %w", ev.ID, err)
			}
		}
		body.WriteString(spacerRow)
	}

	body.WriteString(tableEnd)
	return body.String(), nil
}

// detail computes the display fields of one session.
func detail(ev *models.Event) detailView {
	return detailView{
		Day:      ev.Start.Format(DayLayout),
		Start:    ev.Start.Format(TimeLayout),
		End:      ev.End.Format(TimeLayout),
		Location: Location(ev),
		URL:      ev.URL,
	}
}

// Location returns "Online Event" or the venue's address line.
func Location(ev *models.Event) string {
	if ev.Online {
		return OnlineLocation
	}
	return ev.VenueAddress
}
