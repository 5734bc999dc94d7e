package store

import (
	"context"
	"time"

	"availability-service/internal/availability"
)

// A missing service or one stored without a positive duration counts as an
// hour, the same fallback memstore applies.
const appointmentsQuery = `SELECT a.id, a.tenant_id, a.employee_id, COALESCE(a.service_id, ''), a.scheduled_time, a.status,
	       COALESCE(NULLIF(sv.duration_minutes, 0), 60)
	FROM appointments a
	LEFT JOIN services sv ON sv.id = a.service_id
	WHERE a.tenant_id=$1 AND a.employee_id=$2 AND a.status <> 'cancelled'
	  AND a.scheduled_time < $4
	  AND a.scheduled_time + make_interval(mins => COALESCE(NULLIF(sv.duration_minutes, 0), 60)) > $3
	ORDER BY a.scheduled_time`

const blockedSlotsQuery = `SELECT id, tenant_id, employee_id, start_time, end_time, COALESCE(reason, ''), is_active
	FROM blocked_slots
	WHERE tenant_id=$1 AND (employee_id=$2 OR employee_id IS NULL) AND is_active
	  AND start_time <= $4 AND end_time >= $3
	ORDER BY start_time`

const holidaysQuery = `SELECT id, tenant_id, to_char(date, 'YYYY-MM-DD'), name, is_recurring, affects_all_employees,
	       COALESCE(affected_employee_ids, '{}')
	FROM holidays
	WHERE tenant_id=$1
	  AND (date=$2::date OR (is_recurring AND to_char(date, 'MM-DD') = to_char($2::date, 'MM-DD')))`

const connectionsQuery = `SELECT id, tenant_id, provider, access_token, COALESCE(calendar_id, 'primary'), is_active
	FROM calendar_connections WHERE tenant_id=$1 AND is_active ORDER BY id`

// Appointments derives each appointment's length from its service.
func (s *Store) Appointments(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]availability.Appointment, error) {
	rows, err := s.DB.Query(ctx, appointmentsQuery, tenantID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Appointment
	for rows.Next() {
		var a availability.Appointment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.EmployeeID, &a.ServiceID,
			&a.ScheduledTime, &a.Status, &a.DurationMinutes); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// BlockedSlots matches on closed intervals, business-wide rows included.
func (s *Store) BlockedSlots(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]availability.BlockedSlot, error) {
	rows, err := s.DB.Query(ctx, blockedSlotsQuery, tenantID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.BlockedSlot
	for rows.Next() {
		var b availability.BlockedSlot
		if err := rows.Scan(&b.ID, &b.TenantID, &b.EmployeeID, &b.StartTime, &b.EndTime, &b.Reason, &b.IsActive); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) Holidays(ctx context.Context, tenantID, date string) ([]availability.Holiday, error) {
	rows, err := s.DB.Query(ctx, holidaysQuery, tenantID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Holiday
	for rows.Next() {
		var h availability.Holiday
		if err := rows.Scan(&h.ID, &h.TenantID, &h.Date, &h.Name, &h.IsRecurring,
			&h.AffectsAllEmployees, &h.AffectedEmployeeIDs); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) CalendarConnections(ctx context.Context, tenantID string) ([]availability.CalendarConnection, error) {
	rows, err := s.DB.Query(ctx, connectionsQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.CalendarConnection
	for rows.Next() {
		var c availability.CalendarConnection
		var provider string
		if err := rows.Scan(&c.ID, &c.TenantID, &provider, &c.AccessToken, &c.CalendarID, &c.IsActive); err != nil {
			return nil, err
		}
		c.Provider = availability.Provider(provider)
		out = append(out, c)
	}
	return out, rows.Err()
}
