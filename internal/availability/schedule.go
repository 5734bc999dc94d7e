package availability

import (
	"context"
	"fmt"
	"time"
)

const (
	FromOverride = "override"
	FromSchedule = "schedule"
)

// WorkingDay is the resolved working window for one employee on one date.
type WorkingDay struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Working    bool   `json:"working"`
	Window     Window `json:"window"`
	Source     string `json:"source,omitempty"`
}

// ResolveSchedule applies an override for the date when one exists and falls
// back to the weekly schedule otherwise. The two are never merged.
func ResolveSchedule(ctx context.Context, src ScheduleSource, employeeID string, day time.Time) (WorkingDay, error) {
	date := day.Format(DateLayout)
	wd := WorkingDay{EmployeeID: employeeID, Date: date}

	ov, err := src.Override(ctx, employeeID, date)
	if err != nil {
		return wd, fmt.Errorf("load override for employee %s: %w", employeeID, err)
	}
	if ov != nil {
		wd.Source = FromOverride
		if !ov.IsWorking || ov.StartTime == nil || ov.EndTime == nil {
			return wd, nil
		}
		w, err := window(*ov.StartTime, *ov.EndTime)
		if err != nil {
			return wd, fmt.Errorf("override %s: %w", ov.ID, err)
		}
		wd.Working, wd.Window = true, w
		return wd, nil
	}

	ws, err := src.WorkSchedule(ctx, employeeID, day.Weekday())
	if err != nil {
		return wd, fmt.Errorf("load schedule for employee %s: %w", employeeID, err)
	}
	if ws == nil || !ws.IsActive {
		return wd, nil
	}
	w, err := window(ws.StartTime, ws.EndTime)
	if err != nil {
		return wd, fmt.Errorf("schedule %s: %w", ws.ID, err)
	}
	if ws.BreakStart != nil && ws.BreakEnd != nil {
		bs, err := parseClock(*ws.BreakStart)
		if err != nil {
			return wd, fmt.Errorf("schedule %s break_start: %w", ws.ID, err)
		}
		be, err := parseClock(*ws.BreakEnd)
		if err != nil {
			return wd, fmt.Errorf("schedule %s break_end: %w", ws.ID, err)
		}
		if be > bs {
			w.HasBreak, w.BreakStart, w.BreakEnd = true, bs, be
		}
	}
	wd.Source = FromSchedule
	wd.Working, wd.Window = true, w
	return wd, nil
}

func window(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, err
	}
	if e <= s {
		return Window{}, fmt.Errorf("end_time %s must be after start_time %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}
