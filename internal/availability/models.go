package availability

import "time"

type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
	ProviderApple     Provider = "apple"
)

// ConflictSource tags where a conflict came from.
type ConflictSource string

const (
	SourceInternal ConflictSource = "internal"
	SourceBlocked  ConflictSource = "blocked"
	SourceHoliday  ConflictSource = "holiday"
	SourceGoogle   ConflictSource = "google"
	SourceOutlook  ConflictSource = "outlook"
	SourceApple    ConflictSource = "apple"
)

// Source maps a connection provider onto the tag reported in conflicts.
func (p Provider) Source() ConflictSource {
	switch p {
	case ProviderGoogle:
		return SourceGoogle
	case ProviderMicrosoft:
		return SourceOutlook
	case ProviderApple:
		return SourceApple
	}
	return ConflictSource(p)
}

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Employee struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type Service struct {
	ID              string `json:"id"`
	TenantID        string `json:"tenant_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	IsActive        bool   `json:"is_active"`
}

// WorkSchedule is the recurring weekly template for one weekday.
// Times are "HH:MM" wall-clock strings in the business time zone.
type WorkSchedule struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	DayOfWeek  int     `json:"day_of_week"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	BreakStart *string `json:"break_start,omitempty"`
	BreakEnd   *string `json:"break_end,omitempty"`
	IsActive   bool    `json:"is_active"`
}

type AvailabilityOverride struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	IsWorking  bool    `json:"is_working"`
	StartTime  *string `json:"start_time,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`
}

type Appointment struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	EmployeeID      string    `json:"employee_id"`
	ServiceID       string    `json:"service_id"`
	ScheduledTime   time.Time `json:"scheduled_time"`
	Status          string    `json:"status"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (a Appointment) End() time.Time {
	return a.ScheduledTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// BlockedSlot with a nil EmployeeID applies to the whole business.
type BlockedSlot struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	EmployeeID *string   `json:"employee_id,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Reason     string    `json:"reason"`
	IsActive   bool      `json:"is_active"`
}

type Holiday struct {
	ID                  string   `json:"id"`
	TenantID            string   `json:"tenant_id"`
	Date                string   `json:"date"`
	Name                string   `json:"name"`
	IsRecurring         bool     `json:"is_recurring"`
	AffectsAllEmployees bool     `json:"affects_all_employees"`
	AffectedEmployeeIDs []string `json:"affected_employee_ids,omitempty"`
}

// Affects reports whether the holiday applies to the given employee.
func (h Holiday) Affects(employeeID string) bool {
	if h.AffectsAllEmployees {
		return true
	}
	for _, id := range h.AffectedEmployeeIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}

// OccursOn reports whether the holiday falls on date (YYYY-MM-DD).
// Recurring holidays match on month and day only.
func (h Holiday) OccursOn(date string) bool {
	if h.Date == date {
		return true
	}
	return h.IsRecurring && len(h.Date) == len(DateLayout) && len(date) == len(DateLayout) && h.Date[5:] == date[5:]
}

type CalendarConnection struct {
	ID          string   `json:"id"`
	TenantID    string   `json:"tenant_id"`
	Provider    Provider `json:"provider"`
	AccessToken string   `json:"-"`
	CalendarID  string   `json:"calendar_id"`
	IsActive    bool     `json:"is_active"`
}

// ExternalEvent is the provider-neutral shape every calendar adapter returns.
type ExternalEvent struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Location string    `json:"location,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type Conflict struct {
	Source  ConflictSource `json:"type"`
	Reason  string         `json:"reason"`
	Details any            `json:"details,omitempty"`
}

type AppointmentDetails struct {
	AppointmentID string    `json:"appointment_id"`
	ServiceID     string    `json:"service_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
}

type BlockedDetails struct {
	BlockedSlotID string    `json:"blocked_slot_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Reason        string    `json:"reason"`
}

type HolidayDetails struct {
	HolidayID string `json:"holiday_id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
}

type ExternalDetails struct {
	ConnectionID string    `json:"connection_id"`
	EventID      string    `json:"event_id"`
	Summary      string    `json:"summary"`
	Location     string    `json:"location,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

type AvailabilitySlot struct {
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	EmployeeID   string     `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	IsAvailable  bool       `json:"is_available"`
	Conflicts    []Conflict `json:"conflicts"`
}

// SourceFailure records an external calendar that could not be consulted.
type SourceFailure struct {
	ConnectionID string         `json:"connection_id"`
	Provider     Provider       `json:"provider"`
	Source       ConflictSource `json:"source"`
	Error        string         `json:"error"`
}

type Result struct {
	Slots         []AvailabilitySlot `json:"slots"`
	Partial       bool               `json:"partial"`
	SourcesFailed []SourceFailure    `json:"sources_failed,omitempty"`
}
