package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrValidation wraps every rejection of patient input.
var ErrValidation = errors.New("invalid patient")

type Service struct {
	patients PatientRepository
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients}
}

// CreatePatient requires a first or last name. New patients are active
// from today unless ActiveSince is given.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.FirstName = trimmed(p.FirstName)
	p.LastName = trimmed(p.LastName)
	p.Email = trimmed(p.Email)
	p.Pronoun = trimmed(p.Pronoun)

	if p.FirstName == nil && p.LastName == nil {
		return fmt.Errorf("%w: first_name or last_name is required", ErrValidation)
	}
	if p.Email != nil {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return fmt.Errorf("%w: invalid email %s", ErrValidation, *p.Email)
		}
	}
	if p.CareLevel != nil && (*p.CareLevel < 1 || *p.CareLevel > 5) {
		return fmt.Errorf("%w: care_level must be between 1 and 5", ErrValidation)
	}
	p.Active = true
	if p.ActiveSince == nil {
		now := time.Now()
		p.ActiveSince = &now
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// ListActivePatients returns the patients selectable in forms and filters.
func (s *Service) ListActivePatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.ListActive(ctx)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
