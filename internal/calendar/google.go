package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"availability-service/internal/availability"
)

const defaultCalendarID = "primary"

// Google lists events through the Calendar v3 API.
type Google struct {
	endpoint  string
	transport http.RoundTripper
	attempts  int
	logger    *zap.Logger
}

func NewGoogle(opts Options) *Google {
	opts = opts.withDefaults()
	return &Google{
		endpoint:  opts.GoogleEndpoint,
		transport: opts.Transport,
		attempts:  opts.Attempts,
		logger:    opts.Logger,
	}
}

func (g *Google) FetchEvents(ctx context.Context, conn availability.CalendarConnection, start, end time.Time) ([]availability.ExternalEvent, error) {
	clientOpts := []option.ClientOption{option.WithHTTPClient(bearerClient(conn.AccessToken, g.transport))}
	if g.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(g.endpoint))
	}
	srv, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("google: create calendar service: %w", err)
	}

	calendarID := conn.CalendarID
	if calendarID == "" {
		calendarID = defaultCalendarID
	}
	call := srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339))

	events, err := withRetry(ctx, g.attempts, func() ([]availability.ExternalEvent, error) {
		var out []availability.ExternalEvent
		err := call.Pages(ctx, func(page *gcal.Events) error {
			loc := time.UTC
			if page.TimeZone != "" {
				if l, err := time.LoadLocation(page.TimeZone); err == nil {
					loc = l
				}
			}
			for _, item := range page.Items {
				if ev, ok := googleEvent(item, loc); ok {
					out = append(out, ev)
				}
			}
			return nil
		})
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("google: list events for %s: %w", calendarID, err)
	}
	g.logger.Debug("google events fetched", zap.String("connection_id", conn.ID), zap.Int("events", len(events)))
	return events, nil
}

// googleEvent drops cancelled and free events. All-day events span whole
// days in the calendar's time zone.
func googleEvent(item *gcal.Event, loc *time.Location) (availability.ExternalEvent, bool) {
	if item.Status == "cancelled" || item.Transparency == "transparent" {
		return availability.ExternalEvent{}, false
	}
	start, err := googleTime(item.Start, loc)
	if err != nil {
		return availability.ExternalEvent{}, false
	}
	end, err := googleTime(item.End, loc)
	if err != nil {
		return availability.ExternalEvent{}, false
	}
	return availability.ExternalEvent{
		ID:       item.Id,
		Summary:  summaryOrBusy(item.Summary),
		Location: item.Location,
		Start:    start,
		End:      end,
	}, true
}

func googleTime(t *gcal.EventDateTime, loc *time.Location) (time.Time, error) {
	switch {
	case t == nil:
		return time.Time{}, errors.New("missing event time")
	case t.DateTime != "":
		return time.Parse(time.RFC3339, t.DateTime)
	case t.Date != "":
		return time.ParseInLocation(availability.DateLayout, t.Date, loc)
	}
	return time.Time{}, errors.New("empty event time")
}
