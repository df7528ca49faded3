package identity

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/vocare/calendar/internal/platform/db"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var patientCols = []string{
	"id", "first_name", "last_name", "email", "pronoun",
	"birth_date", "care_level", "active", "active_since", "created_at",
}

type patientRepoPG struct{ q db.Querier }

func NewPatientRepoPG(q db.Querier) PatientRepository { return &patientRepoPG{q: q} }

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	query, args, err := psql.Insert("patients").
		Columns("first_name", "last_name", "email", "pronoun", "birth_date", "care_level", "active", "active_since").
		Values(p.FirstName, p.LastName, p.Email, p.Pronoun, p.BirthDate, p.CareLevel, p.Active, p.ActiveSince).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	return r.q.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query, args, err := psql.Select(patientCols...).From("patients").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var p Patient
	if err := pgxscan.Get(ctx, r.q, &p, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) ListActive(ctx context.Context) ([]*Patient, error) {
	query, args, err := psql.Select(patientCols...).From("patients").
		Where(sq.Eq{"active": true}).
		OrderBy("last_name ASC NULLS LAST", "first_name ASC NULLS LAST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var items []*Patient
	if err := pgxscan.Select(ctx, r.q, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}
