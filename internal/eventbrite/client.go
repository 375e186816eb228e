// Package eventbrite reads organization events and event descriptions from
// the Eventbrite v3 REST API.
package eventbrite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"cetldigest/internal/models"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://www.eventbriteapi.com/v3"

	// localLayout is the format of the "local" start/end fields.
	localLayout = "2006-01-02T15:04:05"

	noName = "No Name"
	noURL  = "No Registration URL"
)

// Client provides a client for interacting with the Eventbrite API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	loc        *time.Location
	logger     *slog.Logger
}

// NewClient creates a new Eventbrite client authenticated with a private token.
// Event times are read as wall-clock times in loc.
func NewClient(ctx context.Context, logger *slog.Logger, baseURL, token string, loc *time.Location) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if loc == nil {
		loc = time.Local
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		loc:        loc,
		logger:     logger,
	}
}

type apiText struct {
	Text *string `json:"text"`
}

type apiDateTime struct {
	Local string `json:"local"`
}

type apiEvent struct {
	ID          string      `json:"id"`
	Name        apiText     `json:"name"`
	OrganizerID string      `json:"organizer_id"`
	Start       apiDateTime `json:"start"`
	End         apiDateTime `json:"end"`
	OnlineEvent bool        `json:"online_event"`
	URL         *string     `json:"url"`
	Logo        *struct {
		URL string `json:"url"`
	} `json:"logo"`
	Venue *struct {
		Address struct {
			Address1 string `json:"address_1"`
		} `json:"address"`
	} `json:"venue"`
}

type pagination struct {
	HasMoreItems bool   `json:"has_more_items"`
	Continuation string `json:"continuation"`
}

type eventsPage struct {
	Pagination pagination `json:"pagination"`
	Events     []apiEvent `json:"events"`
}

type descriptionResponse struct {
	Description *string `json:"description"`
}

// ListEvents fetches the live events of an organization, ordered by start
// time ascending, with venues expanded. All pages are read.
func (c *Client) ListEvents(ctx context.Context, organizationID string) ([]*models.Event, error) {
	c.logger.Debug("Fetching organization events", "organizationID", organizationID)

	var events []*models.Event
	continuation := ""
	for {
		q := url.Values{}
		q.Set("order_by", "start_asc")
		q.Set("expand", "venue")
		q.Set("status", "live")
		if continuation != "" {
			q.Set("continuation", continuation)
		}

		var page eventsPage
		endpoint := fmt.Sprintf("%s/organizations/%s/events/?%s", c.baseURL, url.PathEscape(organizationID), q.Encode())
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("failed to retrieve events: %w", err)
		}

		for _, item := range page.Events {
			ev, err := c.toInternalEvent(item)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}

		if !page.Pagination.HasMoreItems || page.Pagination.Continuation == "" {
			break
		}
		continuation = page.Pagination.Continuation
	}

	c.logger.Info("Successfully fetched events from Eventbrite", "count", len(events), "organizationID", organizationID)
	return events, nil
}

// GetDescription fetches the full HTML description of an event.
func (c *Client) GetDescription(ctx context.Context, eventID string) (string, error) {
	var resp descriptionResponse
	endpoint := fmt.Sprintf("%s/events/%s/description/", c.baseURL, url.PathEscape(eventID))
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", fmt.Errorf("failed to retrieve description for event %s: %w", eventID, err)
	}
	if resp.Description == nil {
		return "", fmt.Errorf("description for event %s: missing description field", eventID)
	}
	return *resp.Description, nil
}

// toInternalEvent converts an Eventbrite event to the internal Event model.
func (c *Client) toInternalEvent(item apiEvent) (*models.Event, error) {
	start, err := time.ParseInLocation(localLayout, item.Start.Local, c.loc)
	if err != nil {
		return nil, fmt.Errorf("event %s: invalid start %q: %w", item.ID, item.Start.Local, err)
	}
	end, err := time.ParseInLocation(localLayout, item.End.Local, c.loc)
	if err != nil {
		return nil, fmt.Errorf("event %s: invalid end %q: %w", item.ID, item.End.Local, err)
	}

	ev := &models.Event{
		ID:          item.ID,
		Name:        noName,
		OrganizerID: item.OrganizerID,
		Start:       start,
		End:         end,
		Online:      item.OnlineEvent,
		URL:         noURL,
	}
	if item.Name.Text != nil {
		ev.Name = *item.Name.Text
	}
	if item.URL != nil {
		ev.URL = *item.URL
	}
	if item.Logo != nil {
		ev.LogoURL = item.Logo.URL
	}
	if item.Venue != nil {
		ev.VenueAddress = item.Venue.Address.Address1
	}
	return ev, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}
