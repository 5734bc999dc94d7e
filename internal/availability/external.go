package availability

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type connectionEvents struct {
	conn   CalendarConnection
	events []ExternalEvent
}

// externalEvidence is the outcome of one fan-out across a tenant's calendar
// connections. Failed connections contribute no events.
type externalEvidence struct {
	sources  []connectionEvents
	failures []SourceFailure
}

func (x *externalEvidence) conflicts(start, end time.Time) []Conflict {
	if x == nil {
		return nil
	}
	var out []Conflict
	for _, src := range x.sources {
		for _, ev := range src.events {
			if !ev.Start.Before(end) || !ev.End.After(start) {
				continue
			}
			out = append(out, Conflict{
				Source: src.conn.Provider.Source(),
				Reason: "External calendar event: " + ev.Summary,
				Details: ExternalDetails{
					ConnectionID: src.conn.ID,
					EventID:      ev.ID,
					Summary:      ev.Summary,
					Location:     ev.Location,
					Start:        ev.Start,
					End:          ev.End,
				},
			})
		}
	}
	return out
}

// startExternal loads the tenant's connections and fetches every active one
// concurrently. The returned channel yields exactly one value. A nil channel
// means external calendars were not requested.
func (r *Resolver) startExternal(ctx context.Context, tenantID string, include bool, start, end time.Time) (<-chan *externalEvidence, error) {
	if !include {
		return nil, nil
	}
	conns, err := r.store.CalendarConnections(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load calendar connections: %w", err)
	}
	ch := make(chan *externalEvidence, 1)
	go func() {
		ch <- r.fetchExternal(ctx, conns, start, end)
	}()
	return ch, nil
}

func (r *Resolver) fetchExternal(ctx context.Context, conns []CalendarConnection, start, end time.Time) *externalEvidence {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
		ev = &externalEvidence{}
	)
	for _, conn := range conns {
		if !conn.IsActive {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, err := r.fetchConnection(ctx, conn, start, end)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("external calendar fetch failed",
					zap.String("connection_id", conn.ID),
					zap.String("provider", string(conn.Provider)),
					zap.Error(err))
				ev.failures = append(ev.failures, SourceFailure{
					ConnectionID: conn.ID,
					Provider:     conn.Provider,
					Source:       conn.Provider.Source(),
					Error:        err.Error(),
				})
				return
			}
			ev.sources = append(ev.sources, connectionEvents{conn: conn, events: events})
		}()
	}
	wg.Wait()

	slices.SortFunc(ev.sources, func(a, b connectionEvents) int { return strings.Compare(a.conn.ID, b.conn.ID) })
	slices.SortFunc(ev.failures, func(a, b SourceFailure) int { return strings.Compare(a.ConnectionID, b.ConnectionID) })
	return ev
}

// fetchConnection calls one adapter under its own deadline. Errors and panics
// are both returned as errors so one provider can never fail the request.
func (r *Resolver) fetchConnection(ctx context.Context, conn CalendarConnection, start, end time.Time) (events []ExternalEvent, err error) {
	ctx, span := tracer.Start(ctx, "availability.fetchExternal", trace.WithAttributes(
		attribute.String("calendar.provider", string(conn.Provider)),
		attribute.String("calendar.connection_id", conn.ID),
	))
	defer span.End()
	defer func() {
		if p := recover(); p != nil {
			events, err = nil, fmt.Errorf("%s adapter panic: %v", conn.Provider, p)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	adapter, ok := r.adapters[conn.Provider]
	if !ok {
		return nil, fmt.Errorf("no adapter for provider %q", conn.Provider)
	}
	ctx, cancel := context.WithTimeout(ctx, r.externalTimeout)
	defer cancel()
	events, err = adapter.FetchEvents(ctx, conn, start, end)
	span.SetAttributes(attribute.Int("calendar.events", len(events)))
	return events, err
}
