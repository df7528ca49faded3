package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vocare/calendar/internal/domain/identity"
	"github.com/vocare/calendar/internal/platform/auth"
	"github.com/vocare/calendar/pkg/pagination"
)

// PatientLister is the part of the patient store the calendar needs.
type PatientLister interface {
	ListActive(ctx context.Context) ([]*identity.Patient, error)
}

// Service is the data-access collaborator behind the calendar views. Reads
// return a fresh snapshot on every call; writes validate first and re-read
// the stored row with its joins after a successful write.
type Service struct {
	appointments AppointmentRepository
	categories   CategoryRepository
	activities   ActivityRepository
	patients     PatientLister
	loc          *time.Location
	logger       zerolog.Logger
}

func NewService(appts AppointmentRepository, cats CategoryRepository, acts ActivityRepository,
	patients PatientLister, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		appointments: appts,
		categories:   cats,
		activities:   acts,
		patients:     patients,
		loc:          loc,
		logger:       logger.With().Str("component", "scheduling").Logger(),
	}
}

// Location is where calendar days and hours are evaluated.
func (s *Service) Location() *time.Location { return s.loc }

// fail logs unexpected backend errors once, at the service boundary.
func (s *Service) fail(op string, err error) error {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
		return err
	}
	s.logger.Error().Err(err).Str("op", op).Msg("backend call failed")
	return fmt.Errorf("%s: %w", op, err)
}

// -- Fetches --

func (s *Service) FetchAppointments(ctx context.Context) ([]*Appointment, error) {
	items, err := s.appointments.List(ctx)
	if err != nil {
		return nil, s.fail("fetch appointments", err)
	}
	return items, nil
}

func (s *Service) FetchPatients(ctx context.Context) ([]*identity.Patient, error) {
	items, err := s.patients.ListActive(ctx)
	if err != nil {
		return nil, s.fail("fetch patients", err)
	}
	return items, nil
}

func (s *Service) FetchCategories(ctx context.Context) ([]*Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, s.fail("fetch categories", err)
	}
	return items, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("get appointment", err)
	}
	return a, nil
}

// -- Writes --

func (s *Service) CreateAppointment(ctx context.Context, d Draft) (*Appointment, error) {
	p, err := d.Validate(s.loc)
	if err != nil {
		return nil, err
	}
	a := &Appointment{}
	p.applyTo(a)
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, s.fail("create appointment", err)
	}

	s.record(ctx, a.ID, ActivityCreated, p.Title)
	return s.GetAppointment(ctx, a.ID)
}

func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, d Draft) (*Appointment, error) {
	p, err := d.Validate(s.loc)
	if err != nil {
		return nil, err
	}
	before, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("update appointment", err)
	}
	a := *before
	p.applyTo(&a)
	if err := s.appointments.Update(ctx, &a); err != nil {
		return nil, s.fail("update appointment", err)
	}

	if changed := changedFields(before, &a); len(changed) > 0 {
		s.record(ctx, id, ActivityUpdated, strings.Join(changed, ", "))
	}
	return s.GetAppointment(ctx, id)
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if err := s.appointments.Delete(ctx, id); err != nil {
		return s.fail("delete appointment", err)
	}
	s.logger.Info().Str("appointment_id", id.String()).Str("user_id", auth.UserIDFromContext(ctx)).Msg("appointment deleted")
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if c.Label == nil || strings.TrimSpace(*c.Label) == "" {
		return newValidationError("label is required")
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return s.fail("create category", err)
	}
	return nil
}

// -- Activities --

// record appends to the activity log. A failure here does not undo the
// write it describes, so it is only logged.
func (s *Service) record(ctx context.Context, appointmentID uuid.UUID, typ, content string) {
	act := &Activity{AppointmentID: appointmentID, Type: typ}
	if uid := auth.UserIDFromContext(ctx); uid != "" {
		act.CreatedBy = &uid
	}
	if content != "" {
		act.Content = &content
	}
	if err := s.activities.Create(ctx, act); err != nil {
		s.logger.Warn().Err(err).
			Str("appointment_id", appointmentID.String()).
			Str("type", typ).
			Msg("failed to record activity")
	}
}

func (s *Service) ListActivities(ctx context.Context, appointmentID uuid.UUID, page pagination.Params) ([]*Activity, int, error) {
	if _, err := s.appointments.GetByID(ctx, appointmentID); err != nil {
		return nil, 0, s.fail("list activities", err)
	}
	items, total, err := s.activities.ListByAppointment(ctx, appointmentID, page)
	if err != nil {
		return nil, 0, s.fail("list activities", err)
	}
	return items, total, nil
}

// -- Views --

// ListAppointments fetches a fresh snapshot and applies f.
func (s *Service) ListAppointments(ctx context.Context, f Filter) ([]*Appointment, error) {
	items, err := s.FetchAppointments(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(items, f), nil
}

func (s *Service) MonthView(ctx context.Context, f Filter, ref time.Time) (*MonthGrid, error) {
	items, err := s.ListAppointments(ctx, f)
	if err != nil {
		return nil, err
	}
	return BucketByDay(items, ref.In(s.loc)), nil
}

func (s *Service) WeekView(ctx context.Context, f Filter, ref time.Time) (*WeekGrid, error) {
	items, err := s.ListAppointments(ctx, f)
	if err != nil {
		return nil, err
	}
	return BucketByHour(items, ref.In(s.loc)), nil
}

func (s *Service) Dashboard(ctx context.Context, f Filter, now time.Time) (Stats, error) {
	items, err := s.ListAppointments(ctx, f)
	if err != nil {
		return Stats{}, err
	}
	patients, err := s.FetchPatients(ctx)
	if err != nil {
		return Stats{}, err
	}
	categories, err := s.FetchCategories(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(items, patients, categories, now.In(s.loc)), nil
}

func (p *Payload) applyTo(a *Appointment) {
	title := p.Title
	start, end := p.Start, p.End
	a.Title = &title
	a.Start = &start
	a.End = &end
	a.Location = p.Location
	a.Notes = p.Notes
	a.PatientID = p.PatientID
	a.CategoryID = p.CategoryID
	a.Attachments = p.Attachments
	a.PatientData = nil
	a.CategoryData = nil
}

// changedFields lists the editable fields that differ between two versions.
func changedFields(before, after *Appointment) []string {
	var out []string
	if deref(before.Title) != deref(after.Title) {
		out = append(out, "title")
	}
	if !sameTime(before.Start, after.Start) {
		out = append(out, "start")
	}
	if !sameTime(before.End, after.End) {
		out = append(out, "end")
	}
	if deref(before.Location) != deref(after.Location) {
		out = append(out, "location")
	}
	if deref(before.Notes) != deref(after.Notes) {
		out = append(out, "notes")
	}
	if !sameID(before.PatientID, after.PatientID) {
		out = append(out, "patient")
	}
	if !sameID(before.CategoryID, after.CategoryID) {
		out = append(out, "category")
	}
	if strings.Join(before.Attachments, "\n") != strings.Join(after.Attachments, "\n") {
		out = append(out, "attachments")
	}
	return out
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
