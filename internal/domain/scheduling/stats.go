package scheduling

import (
	"time"

	"github.com/vocare/calendar/internal/domain/identity"
	"github.com/vocare/calendar/internal/platform/calendar"
)

// Stats are the dashboard counters.
type Stats struct {
	TotalAppointments int `json:"total_appointments"`
	ActivePatients    int `json:"active_patients"`
	Categories        int `json:"categories"`
	Today             int `json:"today"`
}

// ComputeStats counts appts, the active patients and the categories, plus
// the appointments starting on now's calendar day in now's location.
func ComputeStats(appts []*Appointment, patients []*identity.Patient, categories []*Category, now time.Time) Stats {
	st := Stats{
		TotalAppointments: len(appts),
		Categories:        len(categories),
	}
	for _, p := range patients {
		if p.Active {
			st.ActivePatients++
		}
	}
	today := calendar.DateOf(now)
	for _, a := range appts {
		if a.Start != nil && calendar.DateOf(a.Start.In(now.Location())) == today {
			st.Today++
		}
	}
	return st
}
