package scheduling

import (
	"time"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func at(year int, month time.Month, day, hour, min int) *time.Time {
	return timePtr(time.Date(year, month, day, hour, min, 0, 0, time.UTC))
}

func appt(title string, start *time.Time) *Appointment {
	return &Appointment{ID: uuid.New(), Title: strPtr(title), Start: start}
}
