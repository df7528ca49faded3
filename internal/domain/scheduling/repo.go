package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vocare/calendar/pkg/pagination"
)

var ErrNotFound = errors.New("appointment not found")

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	// GetByID returns the appointment with its patient and category joined.
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns every appointment ordered by start, undated last.
	List(ctx context.Context) ([]*Appointment, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	List(ctx context.Context) ([]*Category, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID, page pagination.Params) ([]*Activity, int, error)
}
