package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"availability-service/internal/availability"
)

func (s *Store) Override(ctx context.Context, employeeID, date string) (*availability.AvailabilityOverride, error) {
	q := `SELECT id, employee_id, to_char(date, 'YYYY-MM-DD'), is_working, start_time::text, end_time::text
	      FROM availability_overrides WHERE employee_id=$1 AND date=$2::date LIMIT 1`
	var o availability.AvailabilityOverride
	err := s.DB.QueryRow(ctx, q, employeeID, date).
		Scan(&o.ID, &o.EmployeeID, &o.Date, &o.IsWorking, &o.StartTime, &o.EndTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const scheduleColumns = `id, employee_id, day_of_week, start_time::text, end_time::text,
	break_start::text, break_end::text, is_active`

func scanSchedule(row pgx.Row) (availability.WorkSchedule, error) {
	var ws availability.WorkSchedule
	err := row.Scan(&ws.ID, &ws.EmployeeID, &ws.DayOfWeek, &ws.StartTime, &ws.EndTime,
		&ws.BreakStart, &ws.BreakEnd, &ws.IsActive)
	return ws, err
}

func (s *Store) WorkSchedule(ctx context.Context, employeeID string, day time.Weekday) (*availability.WorkSchedule, error) {
	q := `SELECT ` + scheduleColumns + `
	      FROM employee_schedules WHERE employee_id=$1 AND day_of_week=$2 AND is_active
	      ORDER BY start_time LIMIT 1`
	ws, err := scanSchedule(s.DB.QueryRow(ctx, q, employeeID, int(day)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// WorkSchedules lists the weekly template of an employee of the tenant.
func (s *Store) WorkSchedules(ctx context.Context, tenantID, employeeID string) ([]availability.WorkSchedule, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE tenant_id=$1 AND id=$2)`,
		tenantID, employeeID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, availability.ErrNotFound
	}

	q := `SELECT ` + scheduleColumns + `
	      FROM employee_schedules WHERE employee_id=$1 ORDER BY day_of_week, start_time`
	rows, err := s.DB.Query(ctx, q, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []availability.WorkSchedule{}
	for rows.Next() {
		ws, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}
