package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
)

func newMockRepo(t *testing.T) (PatientRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPatientRepoPG(mock), mock
}

func patientRows() *pgxmock.Rows {
	return pgxmock.NewRows(patientCols)
}

func TestPatientRepoPG_ListActive(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	first, last := "Anna", "Becker"
	var noEmail, noPronoun *string
	var noDate *time.Time
	var noLevel *int16

	mock.ExpectQuery(`SELECT .+ FROM patients WHERE active = \$1 ORDER BY last_name ASC NULLS LAST`).
		WithArgs(true).
		WillReturnRows(patientRows().
			AddRow(uuid.New(), &first, &last, noEmail, noPronoun, noDate, noLevel, true, &now, now).
			AddRow(uuid.New(), &first, &last, noEmail, noPronoun, noDate, noLevel, true, &now, now))

	items, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(items))
	}
	if items[0].FullName() != "Anna Becker" {
		t.Errorf("unexpected name %q", items[0].FullName())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPatientRepoPG_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM patients WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(patientRows())

	_, err := repo.GetByID(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPatientRepoPG_GetByID_DBError(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM patients`).
		WithArgs(id.String()).
		WillReturnError(pgx.ErrTxClosed)

	_, err := repo.GetByID(context.Background(), id)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a database error, got %v", err)
	}
}

func TestPatientRepoPG_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	now := time.Now()
	last := "Becker"
	p := &Patient{LastName: &last, Active: true, ActiveSince: &now}

	mock.ExpectQuery(`INSERT INTO patients .+ RETURNING id, created_at`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), true, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, now))

	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if p.ID != id {
		t.Errorf("expected id %s, got %s", id, p.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
