package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/vocare/calendar/internal/domain/identity"
)

// DefaultCategoryColor is shown for categories without a color.
const DefaultCategoryColor = "#94a3b8"

// Category maps to the categories table.
type Category struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Label       *string   `db:"label" json:"label,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	Color       *string   `db:"color" json:"color,omitempty"`
	Icon        *string   `db:"icon" json:"icon,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (c *Category) DisplayColor() string {
	if c == nil || c.Color == nil || *c.Color == "" {
		return DefaultCategoryColor
	}
	return *c.Color
}

// Appointment maps to the appointments table. PatientData and CategoryData
// are filled from joins on read and never written back.
type Appointment struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	Title        *string           `db:"title" json:"title,omitempty"`
	Start        *time.Time        `db:"start_at" json:"start,omitempty"`
	End          *time.Time        `db:"end_at" json:"end,omitempty"`
	Location     *string           `db:"location" json:"location,omitempty"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`
	PatientID    *uuid.UUID        `db:"patient_id" json:"patient_id,omitempty"`
	CategoryID   *uuid.UUID        `db:"category_id" json:"category_id,omitempty"`
	Attachments  []string          `db:"attachments" json:"attachments"`
	PatientData  *identity.Patient `db:"-" json:"patient,omitempty"`
	CategoryData *Category         `db:"-" json:"category,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// Activity types recorded by the service.
const (
	ActivityCreated = "created"
	ActivityUpdated = "updated"
)

// Activity is one entry of an appointment's change log.
type Activity struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	CreatedBy     *string   `db:"created_by" json:"created_by,omitempty"`
	Type          string    `db:"type" json:"type"`
	Content       *string   `db:"content" json:"content,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
