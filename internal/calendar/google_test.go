package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"availability-service/internal/availability"
)

func TestGoogleFetchEvents(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/calendars/primary/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected authorization %q", got)
		}
		q := r.URL.Query()
		if q.Get("singleEvents") != "true" || q.Get("orderBy") != "startTime" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("timeMin") != "2025-03-03T00:00:00Z" || q.Get("timeMax") != "2025-03-04T00:00:00Z" {
			t.Errorf("unexpected range %s..%s", q.Get("timeMin"), q.Get("timeMax"))
		}
		w.Header().Set("Content-Type", "application/json")
		if q.Get("pageToken") == "" {
			fmt.Fprint(w, `{"timeZone":"Africa/Johannesburg","nextPageToken":"p2","items":[
				{"id":"e1","summary":"Dentist","status":"confirmed","start":{"dateTime":"2025-03-03T10:00:00Z"},"end":{"dateTime":"2025-03-03T11:00:00Z"}},
				{"id":"e2","summary":"Gone","status":"cancelled","start":{"dateTime":"2025-03-03T12:00:00Z"},"end":{"dateTime":"2025-03-03T13:00:00Z"}}
			]}`)
			return
		}
		fmt.Fprint(w, `{"items":[
			{"id":"e3","status":"confirmed","start":{"dateTime":"2025-03-03T14:00:00Z"},"end":{"dateTime":"2025-03-03T15:00:00Z"}},
			{"id":"e4","summary":"Focus","transparency":"transparent","start":{"dateTime":"2025-03-03T15:00:00Z"},"end":{"dateTime":"2025-03-03T16:00:00Z"}}
		]}`)
	}))
	defer srv.Close()

	g := NewGoogle(Options{GoogleEndpoint: srv.URL + "/"})
	conn := availability.CalendarConnection{ID: "c1", Provider: availability.ProviderGoogle, AccessToken: "tok-123"}
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	events, err := g.FetchEvents(context.Background(), conn, start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected two pages, got %d calls", calls)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 busy events, got %+v", events)
	}
	if events[0].ID != "e1" || events[0].Summary != "Dentist" || !events[0].Start.Equal(start.Add(10*time.Hour)) {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Summary != busySummary {
		t.Fatalf("untitled event should read as busy, got %q", events[1].Summary)
	}
}

func TestGoogleFetchEventsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	}))
	defer srv.Close()

	g := NewGoogle(Options{GoogleEndpoint: srv.URL + "/", Attempts: 3})
	_, err := g.FetchEvents(context.Background(), availability.CalendarConnection{ID: "c1", AccessToken: "expired"}, time.Now(), time.Now().Add(time.Hour))
	if err == nil || !strings.Contains(err.Error(), "google") {
		t.Fatalf("expected google error, got %v", err)
	}
}

func TestGoogleAllDayEvent(t *testing.T) {
	loc := time.FixedZone("SAST", 2*60*60)
	ev, ok := googleEvent(&gcal.Event{
		Id:      "h",
		Summary: "Offsite",
		Start:   &gcal.EventDateTime{Date: "2025-03-03"},
		End:     &gcal.EventDateTime{Date: "2025-03-04"},
	}, loc)
	if !ok {
		t.Fatalf("all-day event dropped")
	}
	if !ev.Start.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, loc)) || ev.End.Sub(ev.Start) != 24*time.Hour {
		t.Fatalf("unexpected all-day span %v..%v", ev.Start, ev.End)
	}
}
