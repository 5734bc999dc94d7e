package availability

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubSchedules struct {
	override *AvailabilityOverride
	weekly   map[time.Weekday]*WorkSchedule
	err      error
}

func (s stubSchedules) Override(context.Context, string, string) (*AvailabilityOverride, error) {
	return s.override, s.err
}

func (s stubSchedules) WorkSchedule(_ context.Context, _ string, day time.Weekday) (*WorkSchedule, error) {
	return s.weekly[day], s.err
}

func ptr[T any](v T) *T { return &v }

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func mondaySchedule() map[time.Weekday]*WorkSchedule {
	return map[time.Weekday]*WorkSchedule{
		time.Monday: {ID: "ws1", EmployeeID: "e1", DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", IsActive: true},
	}
}

func TestResolveScheduleWeekly(t *testing.T) {
	wd, err := ResolveSchedule(context.Background(), stubSchedules{weekly: mondaySchedule()}, "e1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wd.Working || wd.Source != FromSchedule || wd.Window.Start != 540 || wd.Window.End != 1020 {
		t.Fatalf("unexpected working day %+v", wd)
	}
	wd, err = ResolveSchedule(context.Background(), stubSchedules{weekly: mondaySchedule()}, "e1", monday.AddDate(0, 0, 1))
	if err != nil || wd.Working {
		t.Fatalf("tuesday should not be working: %+v, %v", wd, err)
	}
}

func TestResolveScheduleOverrideWins(t *testing.T) {
	src := stubSchedules{
		weekly:   mondaySchedule(),
		override: &AvailabilityOverride{ID: "o1", EmployeeID: "e1", Date: "2025-03-03", IsWorking: true, StartTime: ptr("13:00"), EndTime: ptr("15:00")},
	}
	wd, err := ResolveSchedule(context.Background(), src, "e1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wd.Source != FromOverride || wd.Window.Start != 780 || wd.Window.End != 900 {
		t.Fatalf("override not applied: %+v", wd)
	}
}

func TestResolveScheduleOverrideNotWorking(t *testing.T) {
	src := stubSchedules{
		weekly:   mondaySchedule(),
		override: &AvailabilityOverride{ID: "o1", EmployeeID: "e1", Date: "2025-03-03", IsWorking: false},
	}
	wd, err := ResolveSchedule(context.Background(), src, "e1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wd.Working {
		t.Fatalf("expected day off, got %+v", wd)
	}
}

func TestResolveScheduleBreak(t *testing.T) {
	weekly := mondaySchedule()
	weekly[time.Monday].BreakStart = ptr("12:00")
	weekly[time.Monday].BreakEnd = ptr("13:00")
	wd, err := ResolveSchedule(context.Background(), stubSchedules{weekly: weekly}, "e1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wd.Window.HasBreak || wd.Window.BreakStart != 720 || wd.Window.BreakEnd != 780 {
		t.Fatalf("break not resolved: %+v", wd.Window)
	}
}

func TestResolveScheduleErrors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := ResolveSchedule(context.Background(), stubSchedules{err: boom}, "e1", monday); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	weekly := mondaySchedule()
	weekly[time.Monday].EndTime = "08:00"
	if _, err := ResolveSchedule(context.Background(), stubSchedules{weekly: weekly}, "e1", monday); err == nil {
		t.Fatalf("expected error for inverted schedule")
	}
}
