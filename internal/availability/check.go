package availability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SlotCheckRequest struct {
	TenantID                 string
	EmployeeID               string
	Date                     string // YYYY-MM-DD
	Time                     string // HH:MM
	DurationMinutes          int
	Timezone                 string
	IncludeExternalCalendars bool
}

type SlotCheck struct {
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	Available     bool            `json:"available"`
	Conflicts     []Conflict      `json:"conflicts"`
	Partial       bool            `json:"partial"`
	SourcesFailed []SourceFailure `json:"sources_failed"`
}

// IsSlotAvailable runs every conflict checker against a single slot. It does
// not consult the employee's working hours.
func (r *Resolver) IsSlotAvailable(ctx context.Context, req SlotCheckRequest) (*SlotCheck, error) {
	ctx, span := tracer.Start(ctx, "availability.IsSlotAvailable", trace.WithAttributes(
		attribute.String("tenant.id", req.TenantID),
		attribute.String("employee.id", req.EmployeeID),
		attribute.String("date", req.Date),
		attribute.String("time", req.Time),
	))
	defer span.End()

	day, err := r.day(req.TenantID, req.Date, req.Timezone)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID == "" {
		return nil, invalid("employee_id", "required")
	}
	minute, err := parseClock(req.Time)
	if err != nil || minute >= minutesPerDay {
		return nil, invalid("time", "expected HH:MM, got %q", req.Time)
	}
	if req.DurationMinutes <= 0 {
		return nil, invalid("duration_minutes", "must be positive")
	}
	if minute+req.DurationMinutes > minutesPerDay {
		return nil, invalid("duration_minutes", "slot must end by midnight")
	}
	slotCandidate := Candidate{Start: minute, End: minute + req.DurationMinutes}
	if !slotCandidate.exists(day) {
		return nil, invalid("time", "%s does not exist on %s in %s", req.Time, req.Date, day.Location())
	}
	if _, err := r.employees(ctx, req.TenantID, req.EmployeeID); err != nil {
		return nil, err
	}

	start, end := slotCandidate.bounds(day)

	holidays, err := r.store.Holidays(ctx, req.TenantID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	extCh, err := r.startExternal(ctx, req.TenantID, req.IncludeExternalCalendars, start, end)
	if err != nil {
		return nil, err
	}

	ev, err := r.evidence(ctx, req.TenantID, req.EmployeeID, start, end, holidays)
	if err != nil {
		return nil, err
	}
	conflicts := ev.conflicts(start, end)

	var ext *externalEvidence
	if extCh != nil {
		ext = <-extCh
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conflicts = append(conflicts, ext.conflicts(start, end)...)

	slot := finalize(AvailabilitySlot{Start: start, End: end, EmployeeID: req.EmployeeID, Conflicts: conflicts})
	out := &SlotCheck{
		Start:         slot.Start,
		End:           slot.End,
		Available:     slot.IsAvailable,
		Conflicts:     slot.Conflicts,
		SourcesFailed: []SourceFailure{},
	}
	if ext != nil && len(ext.failures) > 0 {
		out.Partial = true
		out.SourcesFailed = ext.failures
	}
	span.SetAttributes(attribute.Bool("available", out.Available))
	return out, nil
}
