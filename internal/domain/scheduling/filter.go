package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Filter narrows an appointment list. A nil field places no constraint;
// the active constraints are combined with AND.
type Filter struct {
	CategoryID *uuid.UUID
	PatientID  *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// IsZero reports whether f places no constraint at all.
func (f Filter) IsZero() bool {
	return f.CategoryID == nil && f.PatientID == nil && f.From == nil && f.To == nil
}

// Matches reports whether a passes every active constraint. Appointments
// without a start always pass the date bounds, and both bounds are inclusive.
func (f Filter) Matches(a *Appointment) bool {
	if f.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *f.CategoryID) {
		return false
	}
	if f.PatientID != nil && (a.PatientID == nil || *a.PatientID != *f.PatientID) {
		return false
	}
	if a.Start != nil {
		if f.From != nil && a.Start.Before(*f.From) {
			return false
		}
		if f.To != nil && a.Start.After(*f.To) {
			return false
		}
	}
	return true
}

// ApplyFilter returns the appointments matching f in their original order.
// The input slice is never modified.
func ApplyFilter(appts []*Appointment, f Filter) []*Appointment {
	out := make([]*Appointment, 0, len(appts))
	if f.IsZero() {
		return append(out, appts...)
	}
	for _, a := range appts {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}
