package availability

import (
	"context"
	"time"
)

type Directory interface {
	ActiveEmployees(ctx context.Context, tenantID string) ([]Employee, error)
	// Service returns ErrNotFound when the tenant has no such service.
	Service(ctx context.Context, tenantID, serviceID string) (*Service, error)
}

// ScheduleSource returns nil, nil when no row exists.
type ScheduleSource interface {
	Override(ctx context.Context, employeeID, date string) (*AvailabilityOverride, error)
	WorkSchedule(ctx context.Context, employeeID string, day time.Weekday) (*WorkSchedule, error)
}

// AppointmentSource lists non-cancelled appointments that overlap [from, to).
type AppointmentSource interface {
	Appointments(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]Appointment, error)
}

// BlockedTimeSource lists active blocks for the employee or the whole business
// that touch [from, to].
type BlockedTimeSource interface {
	BlockedSlots(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]BlockedSlot, error)
}

// HolidaySource lists holidays falling on date, recurring ones included.
type HolidaySource interface {
	Holidays(ctx context.Context, tenantID, date string) ([]Holiday, error)
}

type ConnectionSource interface {
	CalendarConnections(ctx context.Context, tenantID string) ([]CalendarConnection, error)
}

// Store is everything the resolver reads from the internal database.
type Store interface {
	Directory
	ScheduleSource
	AppointmentSource
	BlockedTimeSource
	HolidaySource
	ConnectionSource
}

// CalendarAdapter fetches busy events from one external provider.
type CalendarAdapter interface {
	FetchEvents(ctx context.Context, conn CalendarConnection, start, end time.Time) ([]ExternalEvent, error)
}
