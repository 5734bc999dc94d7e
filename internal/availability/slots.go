package availability

import (
	"encoding/json"
	"fmt"
	"iter"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	minutesPerDay = 24 * 60
)

// Window is a working interval in minutes since local midnight.
// A break, when present, excludes every candidate that overlaps it.
type Window struct {
	Start      int  `json:"start_minute"`
	End        int  `json:"end_minute"`
	HasBreak   bool `json:"has_break"`
	BreakStart int  `json:"break_start_minute,omitempty"`
	BreakEnd   int  `json:"break_end_minute,omitempty"`
}

// MarshalJSON adds HH:MM renderings next to the minute offsets.
func (w Window) MarshalJSON() ([]byte, error) {
	type plain Window
	out := struct {
		plain
		StartTime  string `json:"start_time"`
		EndTime    string `json:"end_time"`
		BreakStart string `json:"break_start,omitempty"`
		BreakEnd   string `json:"break_end,omitempty"`
	}{plain: plain(w), StartTime: formatClock(w.Start), EndTime: formatClock(w.End)}
	if w.HasBreak {
		out.BreakStart, out.BreakEnd = formatClock(w.BreakStart), formatClock(w.BreakEnd)
	}
	return json.Marshal(out)
}

// Candidate is a slot in minutes since local midnight. End is Start plus the
// service duration; the buffer only constrains where a candidate may start.
type Candidate struct {
	Start int
	End   int
}

// Candidates yields slot starts from w.Start in step increments while
// start+duration+buffer still fits inside the window. The sequence is
// finite and can be ranged over any number of times.
func Candidates(w Window, duration, buffer, step int) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if duration <= 0 || step <= 0 || buffer < 0 {
			return
		}
		for start := w.Start; start+duration+buffer <= w.End; start += step {
			c := Candidate{Start: start, End: start + duration}
			if w.HasBreak && c.Start < w.BreakEnd && c.End > w.BreakStart {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// at converts minutes since midnight on day into an instant in day's location.
func at(day time.Time, minutes int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, day.Location())
}

// exists reports whether the candidate's start is a real wall-clock time on
// day. Starts inside a skipped daylight-saving hour are normalized by
// time.Date onto another instant and must be dropped.
func (c Candidate) exists(day time.Time) bool {
	t := at(day, c.Start)
	return t.Hour()*60+t.Minute() == c.Start
}

// bounds returns the absolute start and end of a candidate. The end is
// computed from the start so the slot length is exact across DST changes.
func (c Candidate) bounds(day time.Time) (time.Time, time.Time) {
	start := at(day, c.Start)
	return start, start.Add(time.Duration(c.End-c.Start) * time.Minute)
}

// parseClock turns "HH:MM" (or a longer database form such as
// "09:00:00") into minutes since midnight. "24:00" is accepted as end of day.
func parseClock(s string) (int, error) {
	if len(s) < 5 {
		return 0, fmt.Errorf("invalid time string: %q", s)
	}
	s = s[:5]
	if s == "24:00" {
		return minutesPerDay, nil
	}
	tt, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, err
	}
	return tt.Hour()*60 + tt.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
