package availability

import "time"

const reasonAppointment = "Appointment already scheduled"

// dayEvidence holds everything known about one employee's day from the
// internal store. It is loaded once and consulted for every candidate slot.
type dayEvidence struct {
	employeeID   string
	appointments []Appointment
	blocks       []BlockedSlot
	holidays     []Holiday
}

func (e *dayEvidence) conflicts(start, end time.Time) []Conflict {
	out := internalConflicts(e.appointments, start, end)
	out = append(out, blockedConflicts(e.blocks, e.employeeID, start, end)...)
	out = append(out, holidayConflicts(e.holidays, e.employeeID)...)
	return out
}

// internalConflicts uses half-open intervals: an appointment ending exactly
// at the slot start does not conflict.
func internalConflicts(appts []Appointment, start, end time.Time) []Conflict {
	var out []Conflict
	for _, a := range appts {
		if a.Status == StatusCancelled {
			continue
		}
		apptEnd := a.End()
		if a.ScheduledTime.Before(end) && apptEnd.After(start) {
			out = append(out, Conflict{
				Source: SourceInternal,
				Reason: reasonAppointment,
				Details: AppointmentDetails{
					AppointmentID: a.ID,
					ServiceID:     a.ServiceID,
					Start:         a.ScheduledTime,
					End:           apptEnd,
					Status:        a.Status,
				},
			})
		}
	}
	return out
}

// blockedConflicts uses closed intervals: a block that only touches the slot
// boundary still conflicts.
func blockedConflicts(blocks []BlockedSlot, employeeID string, start, end time.Time) []Conflict {
	var out []Conflict
	for _, b := range blocks {
		if !b.IsActive {
			continue
		}
		if b.EmployeeID != nil && *b.EmployeeID != employeeID {
			continue
		}
		if !b.StartTime.After(end) && !b.EndTime.Before(start) {
			out = append(out, Conflict{
				Source: SourceBlocked,
				Reason: "Blocked time: " + b.Reason,
				Details: BlockedDetails{
					BlockedSlotID: b.ID,
					Start:         b.StartTime,
					End:           b.EndTime,
					Reason:        b.Reason,
				},
			})
		}
	}
	return out
}

func holidayConflicts(holidays []Holiday, employeeID string) []Conflict {
	var out []Conflict
	for _, h := range holidays {
		if !h.Affects(employeeID) {
			continue
		}
		out = append(out, Conflict{
			Source:  SourceHoliday,
			Reason:  "Holiday: " + h.Name,
			Details: HolidayDetails{HolidayID: h.ID, Name: h.Name, Date: h.Date},
		})
	}
	return out
}
