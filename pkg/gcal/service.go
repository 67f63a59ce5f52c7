package gcal

import (
	"context"
	"fmt"
	"time"

	syncdomain "rolodex-backend/internal/sync/domain"
	"rolodex-backend/pkg/googleauth"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// EventSource returns a paginated view over the user's calendars. Refreshed
// tokens are pushed through onTokenRefresh before use.
func (s *Service) EventSource(ctx context.Context, accessToken, refreshToken string, onTokenRefresh googleauth.TokenUpdateFunc) (syncdomain.EventSource, error) {
	client := googleauth.NewClient(ctx, s.clientID, s.clientSecret, accessToken, refreshToken, onTokenRefresh)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}
	return &eventSource{srv: srv}, nil
}

type eventSource struct {
	srv *calendar.Service
}

// Calendars lists the calendars the user can read events from.
func (e *eventSource) Calendars(ctx context.Context) ([]syncdomain.Calendar, error) {
	var calendars []syncdomain.Calendar

	pageToken := ""
	for {
		call := e.srv.CalendarList.List().MinAccessRole("reader")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, googleauth.TranslateError(err)
		}

		for _, item := range resp.Items {
			calendars = append(calendars, syncdomain.Calendar{
				ID:      item.Id,
				Name:    item.Summary,
				Primary: item.Primary,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return calendars, nil
		}
	}
}

// ListEvents returns one page of a calendar's events. Recurring events are
// expanded into single instances so every meeting counts once.
func (e *eventSource) ListEvents(ctx context.Context, calendarID string, after *time.Time, pageToken string, pageSize int64) (*syncdomain.EventPage, error) {
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 100
	}

	call := e.srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(pageSize)
	if after != nil {
		call = call.TimeMin(after.Format(time.RFC3339))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, googleauth.TranslateError(err)
	}

	page := &syncdomain.EventPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		page.Events = append(page.Events, convertEvent(item))
	}
	return page, nil
}

func convertEvent(item *calendar.Event) *syncdomain.Event {
	event := &syncdomain.Event{
		ID:       item.Id,
		Title:    item.Summary,
		StartsAt: eventStart(item),
	}

	if item.Organizer != nil {
		event.Organizer = syncdomain.Address{
			Email: item.Organizer.Email,
			Name:  item.Organizer.DisplayName,
		}
	}

	for _, attendee := range item.Attendees {
		if attendee.Resource {
			continue
		}
		event.Participants = append(event.Participants, syncdomain.Address{
			Email: attendee.Email,
			Name:  attendee.DisplayName,
		})
	}

	return event
}

func eventStart(item *calendar.Event) time.Time {
	if item.Start == nil {
		return time.Time{}
	}
	if item.Start.DateTime != "" {
		if at, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
			return at
		}
	}
	if item.Start.Date != "" {
		if at, err := time.Parse("2006-01-02", item.Start.Date); err == nil {
			return at
		}
	}
	return time.Time{}
}
