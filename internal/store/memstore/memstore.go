// Package memstore is an in-memory availability.Store. It applies the same
// filters as the Postgres queries and is used wherever a database is not
// available.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"availability-service/internal/availability"
)

type Store struct {
	mu           sync.RWMutex
	employees    []availability.Employee
	services     []availability.Service
	schedules    []availability.WorkSchedule
	overrides    []availability.AvailabilityOverride
	appointments []availability.Appointment
	blocks       []availability.BlockedSlot
	holidays     []availability.Holiday
	connections  []availability.CalendarConnection

	// Err, when set, is returned from every read.
	Err error
}

var _ availability.Store = (*Store)(nil)

func New() *Store { return &Store{} }

func (s *Store) AddEmployee(e ...availability.Employee) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = append(s.employees, e...)
	return s
}

func (s *Store) AddService(v ...availability.Service) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append(s.services, v...)
	return s
}

func (s *Store) AddSchedule(v ...availability.WorkSchedule) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, v...)
	return s
}

func (s *Store) AddOverride(v ...availability.AvailabilityOverride) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = append(s.overrides, v...)
	return s
}

func (s *Store) AddAppointment(v ...availability.Appointment) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = append(s.appointments, v...)
	return s
}

func (s *Store) AddBlockedSlot(v ...availability.BlockedSlot) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, v...)
	return s
}

func (s *Store) AddHoliday(v ...availability.Holiday) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays = append(s.holidays, v...)
	return s
}

func (s *Store) AddConnection(v ...availability.CalendarConnection) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections = append(s.connections, v...)
	return s
}

func (s *Store) ActiveEmployees(ctx context.Context, tenantID string) ([]availability.Employee, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []availability.Employee
	for _, e := range s.employees {
		if e.TenantID == tenantID && e.IsActive {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b availability.Employee) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) Service(ctx context.Context, tenantID, serviceID string) (*availability.Service, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.services {
		if v.TenantID == tenantID && v.ID == serviceID {
			v := v
			return &v, nil
		}
	}
	return nil, availability.ErrNotFound
}

func (s *Store) Override(ctx context.Context, employeeID, date string) (*availability.AvailabilityOverride, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.overrides {
		if o.EmployeeID == employeeID && o.Date == date {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (s *Store) WorkSchedule(ctx context.Context, employeeID string, day time.Weekday) (*availability.WorkSchedule, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ws := range s.schedules {
		if ws.EmployeeID == employeeID && ws.DayOfWeek == int(day) && ws.IsActive {
			ws := ws
			return &ws, nil
		}
	}
	return nil, nil
}

// WorkSchedules lists every weekly row for the employee ordered by weekday.
func (s *Store) WorkSchedules(ctx context.Context, tenantID, employeeID string) ([]availability.WorkSchedule, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	known := false
	for _, e := range s.employees {
		if e.ID == employeeID && e.TenantID == tenantID {
			known = true
		}
	}
	if !known {
		return nil, availability.ErrNotFound
	}
	out := []availability.WorkSchedule{}
	for _, ws := range s.schedules {
		if ws.EmployeeID == employeeID {
			out = append(out, ws)
		}
	}
	slices.SortFunc(out, func(a, b availability.WorkSchedule) int { return a.DayOfWeek - b.DayOfWeek })
	return out, nil
}

func (s *Store) Appointments(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]availability.Appointment, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []availability.Appointment
	for _, a := range s.appointments {
		if a.TenantID != tenantID || a.EmployeeID != employeeID || a.Status == availability.StatusCancelled {
			continue
		}
		if a.DurationMinutes == 0 {
			a.DurationMinutes = s.serviceDuration(a.TenantID, a.ServiceID)
		}
		if a.ScheduledTime.Before(to) && a.End().After(from) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b availability.Appointment) int { return a.ScheduledTime.Compare(b.ScheduledTime) })
	return out, nil
}

func (s *Store) serviceDuration(tenantID, serviceID string) int {
	for _, v := range s.services {
		if v.TenantID == tenantID && v.ID == serviceID && v.DurationMinutes > 0 {
			return v.DurationMinutes
		}
	}
	return 60
}

func (s *Store) BlockedSlots(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]availability.BlockedSlot, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []availability.BlockedSlot
	for _, b := range s.blocks {
		if b.TenantID != tenantID || !b.IsActive {
			continue
		}
		if b.EmployeeID != nil && *b.EmployeeID != employeeID {
			continue
		}
		if !b.StartTime.After(to) && !b.EndTime.Before(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) Holidays(ctx context.Context, tenantID, date string) ([]availability.Holiday, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []availability.Holiday
	for _, h := range s.holidays {
		if h.TenantID == tenantID && h.OccursOn(date) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *Store) CalendarConnections(ctx context.Context, tenantID string) ([]availability.CalendarConnection, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []availability.CalendarConnection
	for _, c := range s.connections {
		if c.TenantID == tenantID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

// Ping reports Err, mirroring a database readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.check(ctx)
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Err
}
