package integration

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarSourceName tags events imported from Google Calendar.
const CalendarSourceName = "google_calendar"

// GoogleCalendarSource reads busy time from a Google Calendar.
type GoogleCalendarSource struct {
	srv        *calendar.Service
	calendarID string
}

// GoogleCalendarOptions selects credentials for the calendar API. Exactly one
// of CredentialsFile or AccessToken is normally set; Endpoint and
// ClientOptions are for tests.
type GoogleCalendarOptions struct {
	CalendarID      string
	CredentialsFile string
	AccessToken     string
	Endpoint        string
	ClientOptions   []option.ClientOption
}

// NewGoogleCalendarSource creates a calendar client.
func NewGoogleCalendarSource(ctx context.Context, opts GoogleCalendarOptions) (*GoogleCalendarSource, error) {
	if opts.CalendarID == "" {
		opts.CalendarID = "primary"
	}

	clientOpts := append([]option.ClientOption(nil), opts.ClientOptions...)
	switch {
	case opts.AccessToken != "":
		clientOpts = append(clientOpts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken})))
	case opts.CredentialsFile != "":
		if _, err := os.Stat(opts.CredentialsFile); err != nil {
			return nil, fmt.Errorf("reading calendar credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile), option.WithScopes(calendar.CalendarReadonlyScope))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	srv, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	return &GoogleCalendarSource{srv: srv, calendarID: opts.CalendarID}, nil
}

// Events lists single (expanded) events overlapping [from, to). Cancelled,
// transparent and malformed events are skipped.
func (g *GoogleCalendarSource) Events(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	pageToken := ""
	for {
		call := g.srv.Events.List(g.calendarID).
			Context(ctx).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
		}
		for _, item := range events.Items {
			if ev, ok := convertGoogleEvent(item); ok {
				out = append(out, ev)
			}
		}
		if events.NextPageToken == "" {
			return out, nil
		}
		pageToken = events.NextPageToken
	}
}

// convertGoogleEvent maps an API event to a CalendarEvent. All-day events
// occupy whole days in UTC.
func convertGoogleEvent(item *calendar.Event) (models.CalendarEvent, bool) {
	if item == nil || item.Status == "cancelled" || item.Transparency == "transparent" {
		return models.CalendarEvent{}, false
	}
	start, ok := parseEventTime(item.Start)
	if !ok {
		return models.CalendarEvent{}, false
	}
	end, ok := parseEventTime(item.End)
	if !ok || !end.After(start) {
		return models.CalendarEvent{}, false
	}
	return models.CalendarEvent{
		ID:     item.Id,
		Title:  item.Summary,
		Start:  start,
		End:    end,
		Source: CalendarSourceName,
	}, true
}

func parseEventTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	if dt.Date != "" {
		t, err := time.Parse(time.DateOnly, dt.Date)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
