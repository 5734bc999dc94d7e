package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"availability-service/internal/availability"
)

func TestOutlookFetchEventsFollowsNextLink(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer graph-token" {
			t.Errorf("unexpected authorization %q", got)
		}
		if got := r.Header.Get("Prefer"); got != `outlook.timezone="UTC"` {
			t.Errorf("unexpected prefer header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/me/calendar/calendarView":
			if r.URL.Query().Get("startDateTime") != "2025-03-03T00:00:00Z" {
				t.Errorf("unexpected startDateTime %q", r.URL.Query().Get("startDateTime"))
			}
			fmt.Fprintf(w, `{"value":[
				{"id":"o1","subject":"Standup","showAs":"busy","start":{"dateTime":"2025-03-03T08:00:00.0000000","timeZone":"UTC"},"end":{"dateTime":"2025-03-03T08:30:00.0000000","timeZone":"UTC"},"location":{"displayName":"Room 4"}},
				{"id":"o2","subject":"Cancelled","isCancelled":true,"start":{"dateTime":"2025-03-03T09:00:00.0000000","timeZone":"UTC"},"end":{"dateTime":"2025-03-03T10:00:00.0000000","timeZone":"UTC"}}
			],"@odata.nextLink":"%s/page2"}`, srv.URL)
		case "/page2":
			fmt.Fprint(w, `{"value":[
				{"id":"o3","subject":"Gym","showAs":"free","start":{"dateTime":"2025-03-03T12:00:00","timeZone":"UTC"},"end":{"dateTime":"2025-03-03T13:00:00","timeZone":"UTC"}},
				{"id":"o4","subject":"Review","showAs":"tentative","start":{"dateTime":"2025-03-03T14:00:00","timeZone":"UTC"},"end":{"dateTime":"2025-03-03T15:00:00","timeZone":"UTC"}}
			]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	o := NewOutlook(Options{GraphEndpoint: srv.URL})
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	events, err := o.FetchEvents(context.Background(), availability.CalendarConnection{ID: "c2", AccessToken: "graph-token"}, start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].ID != "o1" || events[1].ID != "o4" {
		t.Fatalf("unexpected events %+v", events)
	}
	if events[0].Location != "Room 4" || !events[0].End.Equal(start.Add(8*time.Hour+30*time.Minute)) {
		t.Fatalf("unexpected first event %+v", events[0])
	}
}

func TestOutlookRetriesTemporaryFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"value":[]}`)
	}))
	defer srv.Close()

	o := NewOutlook(Options{GraphEndpoint: srv.URL, Attempts: 2})
	events, err := o.FetchEvents(context.Background(), availability.CalendarConnection{ID: "c2"}, time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 || len(events) != 0 {
		t.Fatalf("expected a retry and no events, got %d calls, %d events", calls, len(events))
	}
}

func TestOutlookDoesNotRetryAuthFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"InvalidAuthenticationToken"}}`)
	}))
	defer srv.Close()

	o := NewOutlook(Options{GraphEndpoint: srv.URL, Attempts: 3})
	_, err := o.FetchEvents(context.Background(), availability.CalendarConnection{ID: "c2"}, time.Now(), time.Now().Add(time.Hour))
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("auth failure retried %d times", calls)
	}
}

func TestAppleReturnsNoEvents(t *testing.T) {
	events, err := NewApple(Options{}).FetchEvents(context.Background(), availability.CalendarConnection{ID: "c3"}, time.Now(), time.Now())
	if err != nil || events == nil || len(events) != 0 {
		t.Fatalf("expected empty non-nil list, got %v, %v", events, err)
	}
}

func TestAdaptersCoverProviders(t *testing.T) {
	adapters := Adapters(Options{})
	for _, p := range []availability.Provider{availability.ProviderGoogle, availability.ProviderMicrosoft, availability.ProviderApple} {
		if adapters[p] == nil {
			t.Fatalf("missing adapter for %s", p)
		}
	}
}
