package availability

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimezone        = "Africa/Johannesburg"
	DefaultStepMinutes     = 30
	DefaultExternalTimeout = 3 * time.Second
	DefaultConcurrency     = 8
)

var tracer = otel.Tracer("availability-service/availability")

// Resolver answers availability queries for a tenant. It holds no per-request
// state and is safe for concurrent use.
type Resolver struct {
	store           Store
	adapters        map[Provider]CalendarAdapter
	logger          *zap.Logger
	location        *time.Location
	step            int
	externalTimeout time.Duration
	concurrency     int
}

type Option func(*Resolver)

func WithLogger(l *zap.Logger) Option { return func(r *Resolver) { r.logger = l } }

func WithLocation(loc *time.Location) Option { return func(r *Resolver) { r.location = loc } }

// WithStep sets the distance in minutes between consecutive candidate starts.
func WithStep(minutes int) Option { return func(r *Resolver) { r.step = minutes } }

// WithExternalTimeout bounds each individual external calendar call.
func WithExternalTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.externalTimeout = d }
}

// WithConcurrency caps how many employees are resolved at once.
func WithConcurrency(n int) Option { return func(r *Resolver) { r.concurrency = n } }

func NewResolver(store Store, adapters map[Provider]CalendarAdapter, opts ...Option) *Resolver {
	r := &Resolver{
		store:           store,
		adapters:        adapters,
		logger:          zap.NewNop(),
		step:            DefaultStepMinutes,
		externalTimeout: DefaultExternalTimeout,
		concurrency:     DefaultConcurrency,
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		r.location = loc
	} else {
		r.location = time.UTC
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.step <= 0 {
		r.step = DefaultStepMinutes
	}
	if r.concurrency <= 0 {
		r.concurrency = DefaultConcurrency
	}
	return r
}

type Request struct {
	TenantID  string
	Date      string // YYYY-MM-DD in the business time zone
	ServiceID string
	// ServiceDuration overrides the service's own duration when positive.
	ServiceDuration          int
	EmployeeID               string
	BufferTime               int
	Timezone                 string
	IncludeExternalCalendars bool
}

// GetAvailableSlots returns every candidate slot for the tenant's active
// employees on the requested date, each annotated with its conflicts.
// External calendar failures degrade the result to Partial instead of
// failing it; internal store errors and cancellation fail the request.
func (r *Resolver) GetAvailableSlots(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "availability.GetAvailableSlots", trace.WithAttributes(
		attribute.String("tenant.id", req.TenantID),
		attribute.String("date", req.Date),
		attribute.Bool("include_external", req.IncludeExternalCalendars),
	))
	defer span.End()

	day, err := r.day(req.TenantID, req.Date, req.Timezone)
	if err != nil {
		return nil, err
	}
	if req.ServiceID == "" {
		return nil, invalid("service_id", "required")
	}
	if req.ServiceDuration < 0 {
		return nil, invalid("duration_minutes", "must not be negative")
	}
	if req.BufferTime < 0 {
		return nil, invalid("buffer_minutes", "must not be negative")
	}

	svc, err := r.store.Service(ctx, req.TenantID, req.ServiceID)
	switch {
	case errors.Is(err, ErrNotFound), err == nil && !svc.IsActive:
		return nil, invalid("service_id", "unknown service %q", req.ServiceID)
	case err != nil:
		return nil, fmt.Errorf("load service: %w", err)
	}
	duration := req.ServiceDuration
	if duration == 0 {
		duration = svc.DurationMinutes
	}
	if duration <= 0 {
		return nil, invalid("duration_minutes", "service %q has no duration", req.ServiceID)
	}

	employees, err := r.employees(ctx, req.TenantID, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return &Result{Slots: []AvailabilitySlot{}}, nil
	}

	holidays, err := r.store.Holidays(ctx, req.TenantID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	extCh, err := r.startExternal(ctx, req.TenantID, req.IncludeExternalCalendars, at(day, 0), at(day, minutesPerDay))
	if err != nil {
		return nil, err
	}

	perEmployee := make([][]AvailabilitySlot, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, emp := range employees {
		g.Go(func() error {
			slots, err := r.employeeSlots(gctx, req.TenantID, emp, day, duration, req.BufferTime, holidays)
			if err != nil {
				return err
			}
			perEmployee[i] = slots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ext *externalEvidence
	if extCh != nil {
		ext = <-extCh
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Slots: []AvailabilitySlot{}}
	for _, slots := range perEmployee {
		for _, s := range slots {
			s.Conflicts = append(s.Conflicts, ext.conflicts(s.Start, s.End)...)
			res.Slots = append(res.Slots, finalize(s))
		}
	}
	slices.SortStableFunc(res.Slots, func(a, b AvailabilitySlot) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.EmployeeID, b.EmployeeID)
	})
	if ext != nil && len(ext.failures) > 0 {
		res.Partial = true
		res.SourcesFailed = ext.failures
	}

	span.SetAttributes(attribute.Int("slots", len(res.Slots)), attribute.Bool("partial", res.Partial))
	r.logger.Debug("availability resolved",
		zap.String("tenant_id", req.TenantID),
		zap.String("date", req.Date),
		zap.Int("employees", len(employees)),
		zap.Int("slots", len(res.Slots)),
		zap.Bool("partial", res.Partial))
	return res, nil
}

func (r *Resolver) employeeSlots(ctx context.Context, tenantID string, emp Employee, day time.Time, duration, buffer int, holidays []Holiday) ([]AvailabilitySlot, error) {
	wd, err := ResolveSchedule(ctx, r.store, emp.ID, day)
	if err != nil {
		return nil, err
	}
	if !wd.Working {
		return nil, nil
	}
	from, to := at(day, wd.Window.Start), at(day, wd.Window.End)

	ev, err := r.evidence(ctx, tenantID, emp.ID, from, to, holidays)
	if err != nil {
		return nil, err
	}

	var out []AvailabilitySlot
	for c := range Candidates(wd.Window, duration, buffer, r.step) {
		if !c.exists(day) {
			continue
		}
		start, end := c.bounds(day)
		out = append(out, AvailabilitySlot{
			Start:        start,
			End:          end,
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			Conflicts:    ev.conflicts(start, end),
		})
	}
	return out, nil
}

func (r *Resolver) evidence(ctx context.Context, tenantID, employeeID string, from, to time.Time, holidays []Holiday) (*dayEvidence, error) {
	appts, err := r.store.Appointments(ctx, tenantID, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load appointments for employee %s: %w", employeeID, err)
	}
	blocks, err := r.store.BlockedSlots(ctx, tenantID, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load blocked slots for employee %s: %w", employeeID, err)
	}
	return &dayEvidence{employeeID: employeeID, appointments: appts, blocks: blocks, holidays: holidays}, nil
}

// employees returns the active employees of the tenant, narrowed to one when
// employeeID is set. An unknown employee is a validation error.
func (r *Resolver) employees(ctx context.Context, tenantID, employeeID string) ([]Employee, error) {
	all, err := r.store.ActiveEmployees(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	if employeeID == "" {
		return all, nil
	}
	for _, e := range all {
		if e.ID == employeeID {
			return []Employee{e}, nil
		}
	}
	return nil, invalid("employee_id", "unknown employee %q", employeeID)
}

// day validates the tenant, date and time zone and returns local midnight.
func (r *Resolver) day(tenantID, date, tz string) (time.Time, error) {
	if strings.TrimSpace(tenantID) == "" {
		return time.Time{}, invalid("tenant_id", "required")
	}
	loc := r.location
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, invalid("timezone", "unknown time zone %q", tz)
		}
		loc = l
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, invalid("date", "expected YYYY-MM-DD, got %q", date)
	}
	return d, nil
}

// ResolveWorkingDay resolves the working window of one employee on date.
func (r *Resolver) ResolveWorkingDay(ctx context.Context, tenantID, employeeID, date, tz string) (WorkingDay, error) {
	day, err := r.day(tenantID, date, tz)
	if err != nil {
		return WorkingDay{}, err
	}
	if employeeID == "" {
		return WorkingDay{}, invalid("employee_id", "required")
	}
	if _, err := r.employees(ctx, tenantID, employeeID); err != nil {
		return WorkingDay{}, err
	}
	return ResolveSchedule(ctx, r.store, employeeID, day)
}

func finalize(s AvailabilitySlot) AvailabilitySlot {
	if s.Conflicts == nil {
		s.Conflicts = []Conflict{}
	}
	s.IsAvailable = len(s.Conflicts) == 0
	return s
}
