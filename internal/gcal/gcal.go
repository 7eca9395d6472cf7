// Package gcal reads events from Google Calendar.
package gcal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	appLog "inkcal/internal/log"
	"inkcal/internal/model"
)

// Source lists events of one Google calendar. Recurring events are expanded
// server-side (SingleEvents).
type Source struct {
	svc        *calendar.Service
	calendarID string
	log        *appLog.Logger
}

// NewService builds a Calendar API client. Credential handling is entirely
// up to opts (credentials file, token source, API key).
func NewService(ctx context.Context, opts ...option.ClientOption) (*calendar.Service, error) {
	opts = append([]option.ClientOption{option.WithScopes(calendar.CalendarReadonlyScope)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcal: new service: %w", err)
	}
	return svc, nil
}

// NewSource reads events of one calendar through svc.
func NewSource(svc *calendar.Service, calendarID string, logger *appLog.Logger) *Source {
	return &Source{
		svc:        svc,
		calendarID: calendarID,
		log:        logger.With("calendar", calendarID),
	}
}

func (s *Source) Name() string { return s.calendarID }

// Fetch lists every event intersecting [start, end], ordered by start time
// within this calendar.
func (s *Source) Fetch(ctx context.Context, start, end time.Time) ([]model.RawEvent, error) {
	var out []model.RawEvent

	call := s.svc.Events.List(s.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false)

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			out = append(out, FromAPI(s.calendarID, item))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gcal: list %s: %w", s.calendarID, err)
	}

	if len(out) == 0 {
		s.log.Info("no upcoming events found")
	}
	return out, nil
}

// FromAPI maps an API event onto the source-neutral raw record. Missing
// bounds stay nil so the normalizer reports the event as malformed.
func FromAPI(calendarID string, ev *calendar.Event) model.RawEvent {
	raw := model.RawEvent{
		CalendarID:  calendarID,
		ID:          ev.Id,
		Updated:     ev.Updated,
		Summary:     ev.Summary,
		Location:    ev.Location,
		Description: ev.Description,
	}
	if ev.Start != nil {
		raw.Start = &model.Boundary{Date: ev.Start.Date, DateTime: ev.Start.DateTime}
	}
	if ev.End != nil {
		raw.End = &model.Boundary{Date: ev.End.Date, DateTime: ev.End.DateTime}
	}
	return raw
}
