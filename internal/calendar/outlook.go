package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"availability-service/internal/availability"
)

const (
	defaultGraphEndpoint = "https://graph.microsoft.com/v1.0"
	graphTimeLayout      = "2006-01-02T15:04:05.9999999"
	graphPageSize        = "100"
)

// Outlook lists events through Microsoft Graph calendarView, which expands
// recurring series into occurrences inside the requested range.
type Outlook struct {
	endpoint  string
	transport http.RoundTripper
	attempts  int
	logger    *zap.Logger
}

func NewOutlook(opts Options) *Outlook {
	opts = opts.withDefaults()
	endpoint := strings.TrimRight(opts.GraphEndpoint, "/")
	if endpoint == "" {
		endpoint = defaultGraphEndpoint
	}
	return &Outlook{
		endpoint:  endpoint,
		transport: opts.Transport,
		attempts:  opts.Attempts,
		logger:    opts.Logger,
	}
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEvent struct {
	ID          string        `json:"id"`
	Subject     string        `json:"subject"`
	IsCancelled bool          `json:"isCancelled"`
	ShowAs      string        `json:"showAs"`
	Start       graphDateTime `json:"start"`
	End         graphDateTime `json:"end"`
	Location    struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
}

type graphPage struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

func (o *Outlook) FetchEvents(ctx context.Context, conn availability.CalendarConnection, start, end time.Time) ([]availability.ExternalEvent, error) {
	client := bearerClient(conn.AccessToken, o.transport)

	path := "/me/calendar/calendarView"
	if conn.CalendarID != "" && conn.CalendarID != defaultCalendarID {
		path = "/me/calendars/" + url.PathEscape(conn.CalendarID) + "/calendarView"
	}
	q := url.Values{}
	q.Set("startDateTime", start.UTC().Format(time.RFC3339))
	q.Set("endDateTime", end.UTC().Format(time.RFC3339))
	q.Set("$select", "id,subject,start,end,location,isCancelled,showAs")
	q.Set("$top", graphPageSize)
	next := o.endpoint + path + "?" + q.Encode()

	var out []availability.ExternalEvent
	for next != "" {
		page, err := withRetry(ctx, o.attempts, func() (*graphPage, error) {
			return o.page(ctx, client, next)
		})
		if err != nil {
			return nil, fmt.Errorf("outlook: list events: %w", err)
		}
		for _, item := range page.Value {
			if ev, ok := outlookEvent(item); ok {
				out = append(out, ev)
			}
		}
		next = page.NextLink
	}
	o.logger.Debug("outlook events fetched", zap.String("connection_id", conn.ID), zap.Int("events", len(out)))
	return out, nil
}

func (o *Outlook) page(ctx context.Context, client *http.Client, link string) (*graphPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Provider: "outlook", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var page graphPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &page, nil
}

func outlookEvent(item graphEvent) (availability.ExternalEvent, bool) {
	if item.IsCancelled || strings.EqualFold(item.ShowAs, "free") {
		return availability.ExternalEvent{}, false
	}
	start, err := graphTime(item.Start)
	if err != nil {
		return availability.ExternalEvent{}, false
	}
	end, err := graphTime(item.End)
	if err != nil {
		return availability.ExternalEvent{}, false
	}
	return availability.ExternalEvent{
		ID:       item.ID,
		Summary:  summaryOrBusy(item.Subject),
		Location: item.Location.DisplayName,
		Start:    start,
		End:      end,
	}, true
}

func graphTime(t graphDateTime) (time.Time, error) {
	loc := time.UTC
	if t.TimeZone != "" && !strings.EqualFold(t.TimeZone, "UTC") {
		l, err := time.LoadLocation(t.TimeZone)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	return time.ParseInLocation(graphTimeLayout, t.DateTime, loc)
}
