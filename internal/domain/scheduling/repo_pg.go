package scheduling

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/vocare/calendar/internal/domain/identity"
	"github.com/vocare/calendar/internal/platform/db"
	"github.com/vocare/calendar/pkg/pagination"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// translate maps storage errors onto the package's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsForeignKeyViolation(err):
		return ErrUnknownReference
	}
	return err
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ q db.Querier }

func NewAppointmentRepoPG(q db.Querier) AppointmentRepository { return &appointmentRepoPG{q: q} }

// appointmentRow is one appointment with its joined patient and category
// columns flattened.
type appointmentRow struct {
	Appointment
	PatientFirstName    *string `db:"patient_first_name"`
	PatientLastName     *string `db:"patient_last_name"`
	PatientEmail        *string `db:"patient_email"`
	PatientPronoun      *string `db:"patient_pronoun"`
	PatientActive       *bool   `db:"patient_active"`
	CategoryLabel       *string `db:"category_label"`
	CategoryDescription *string `db:"category_description"`
	CategoryColor       *string `db:"category_color"`
	CategoryIcon        *string `db:"category_icon"`
}

func (r *appointmentRow) toAppointment() *Appointment {
	a := r.Appointment
	if a.Attachments == nil {
		a.Attachments = []string{}
	}
	if a.PatientID != nil {
		a.PatientData = &identity.Patient{
			ID:        *a.PatientID,
			FirstName: r.PatientFirstName,
			LastName:  r.PatientLastName,
			Email:     r.PatientEmail,
			Pronoun:   r.PatientPronoun,
			Active:    r.PatientActive != nil && *r.PatientActive,
		}
	}
	if a.CategoryID != nil {
		a.CategoryData = &Category{
			ID:          *a.CategoryID,
			Label:       r.CategoryLabel,
			Description: r.CategoryDescription,
			Color:       r.CategoryColor,
			Icon:        r.CategoryIcon,
		}
	}
	return &a
}

var appointmentCols = []string{
	"a.id", "a.title", "a.start_at", "a.end_at", "a.location", "a.notes",
	"a.patient_id", "a.category_id", "a.attachments", "a.created_at", "a.updated_at",
	"p.first_name AS patient_first_name", "p.last_name AS patient_last_name",
	"p.email AS patient_email", "p.pronoun AS patient_pronoun", "p.active AS patient_active",
	"c.label AS category_label", "c.description AS category_description",
	"c.color AS category_color", "c.icon AS category_icon",
}

func selectAppointments() sq.SelectBuilder {
	return psql.Select(appointmentCols...).
		From("appointments a").
		LeftJoin("patients p ON p.id = a.patient_id").
		LeftJoin("categories c ON c.id = a.category_id")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	query, args, err := psql.Insert("appointments").
		Columns("title", "start_at", "end_at", "location", "notes", "patient_id", "category_id", "attachments").
		Values(a.Title, a.Start, a.End, a.Location, a.Notes, a.PatientID, a.CategoryID, nonNil(a.Attachments)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	return translate(r.q.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt))
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query, args, err := selectAppointments().Where(sq.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var row appointmentRow
	if err := pgxscan.Get(ctx, r.q, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toAppointment(), nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	query, args, err := psql.Update("appointments").
		Set("title", a.Title).
		Set("start_at", a.Start).
		Set("end_at", a.End).
		Set("location", a.Location).
		Set("notes", a.Notes).
		Set("patient_id", a.PatientID).
		Set("category_id", a.CategoryID).
		Set("attachments", nonNil(a.Attachments)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return translate(r.q.QueryRow(ctx, query, args...).Scan(&a.UpdatedAt))
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("appointments").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context) ([]*Appointment, error) {
	query, args, err := selectAppointments().
		OrderBy("a.start_at ASC NULLS LAST", "a.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var rows []*appointmentRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, err
	}
	items := make([]*Appointment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toAppointment())
	}
	return items, nil
}

// =========== Category Repository ===========

type categoryRepoPG struct{ q db.Querier }

func NewCategoryRepoPG(q db.Querier) CategoryRepository { return &categoryRepoPG{q: q} }

func (r *categoryRepoPG) Create(ctx context.Context, c *Category) error {
	query, args, err := psql.Insert("categories").
		Columns("label", "description", "color", "icon").
		Values(c.Label, c.Description, c.Color, c.Icon).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	return r.q.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt)
}

func (r *categoryRepoPG) List(ctx context.Context) ([]*Category, error) {
	query, args, err := psql.Select("id", "label", "description", "color", "icon", "created_at").
		From("categories").
		OrderBy("label ASC NULLS LAST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var items []*Category
	if err := pgxscan.Select(ctx, r.q, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

// =========== Activity Repository ===========

type activityRepoPG struct{ q db.Querier }

func NewActivityRepoPG(q db.Querier) ActivityRepository { return &activityRepoPG{q: q} }

func (r *activityRepoPG) Create(ctx context.Context, a *Activity) error {
	query, args, err := psql.Insert("activities").
		Columns("appointment_id", "created_by", "type", "content").
		Values(a.AppointmentID, a.CreatedBy, a.Type, a.Content).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	return translate(r.q.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt))
}

func (r *activityRepoPG) ListByAppointment(ctx context.Context, appointmentID uuid.UUID, page pagination.Params) ([]*Activity, int, error) {
	where := sq.Eq{"appointment_id": appointmentID}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("activities").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := r.q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := page.Apply(
		psql.Select("id", "appointment_id", "created_by", "type", "content", "created_at").
			From("activities").
			Where(where).
			OrderBy("created_at DESC"),
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build select: %w", err)
	}
	var items []*Activity
	if err := pgxscan.Select(ctx, r.q, &items, query, args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
