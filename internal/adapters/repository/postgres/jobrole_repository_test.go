package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/jobrole"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

func TestScanJobRole_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Now().UTC()
	updatedAt := createdAt.Add(time.Minute)

	row := stubRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 6 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "role-1"
		*(dest[1].(*string)) = "Registered Nurse"
		*(dest[2].(*string)) = "Ward cover"
		*(dest[3].(*bool)) = true
		*(dest[4].(*time.Time)) = createdAt
		*(dest[5].(*time.Time)) = updatedAt
		return nil
	}}

	role, err := scanJobRole(row)
	if err != nil {
		t.Fatalf("scanJobRole returned error: %v", err)
	}

	if role.ID != "role-1" || role.Title != "Registered Nurse" || !role.Active {
		t.Fatalf("unexpected job role %+v", role)
	}
}

func TestScanJobRole_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanJobRole(row)
	if !errors.Is(err, jobrole.ErrJobRoleNotFound) {
		t.Fatalf("expected ErrJobRoleNotFound, got %v", err)
	}
}

func TestTranslateJobRolePgError(t *testing.T) {
	t.Parallel()

	titleErr := &pgconn.PgError{Code: uniqueViolationCode, TableName: "job_roles"}
	if !errors.Is(translateJobRolePgError(titleErr), jobrole.ErrTitleAlreadyExists) {
		t.Fatalf("expected title conflict mapping")
	}

	docErr := &pgconn.PgError{Code: uniqueViolationCode, TableName: "compliance_documents"}
	if !errors.Is(translateJobRolePgError(docErr), jobrole.ErrDocumentAlreadyExists) {
		t.Fatalf("expected document conflict mapping")
	}

	fkErr := &pgconn.PgError{Code: foreignKeyViolationCode, TableName: "bookings"}
	if !errors.Is(translateJobRolePgError(fkErr), jobrole.ErrJobRoleInUse) {
		t.Fatalf("expected in-use mapping")
	}

	otherErr := errors.New("random")
	if translateJobRolePgError(otherErr) != otherErr {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestJobRoleRepository_List_WithNextToken(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewJobRoleRepository(mock)

	query := regexp.QuoteMeta(`
        SELECT id, title, description, active, created_at, updated_at
          FROM job_roles
         ORDER BY title ASC, id ASC
         LIMIT $1
        OFFSET $2
    `)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "title", "description", "active", "created_at", "updated_at"}).
		AddRow("role-1", "Care Assistant", "", true, now, now).
		AddRow("role-2", "Registered Nurse", "", true, now, now).
		AddRow("role-3", "Support Worker", "", false, now, now)

	mock.ExpectQuery(query).
		WithArgs(3, 0).
		WillReturnRows(rows)

	roles, nextToken, err := repo.List(context.Background(), jobrole.ListJobRolesFilter{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(roles) != 2 {
		t.Fatalf("expected 2 job roles, got %d", len(roles))
	}

	if nextToken != "2" {
		t.Fatalf("expected next token '2', got %s", nextToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJobRoleRepository_List_ActiveOnly(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewJobRoleRepository(mock)

	query := regexp.QuoteMeta(`
        SELECT id, title, description, active, created_at, updated_at
          FROM job_roles WHERE active = TRUE
         ORDER BY title ASC, id ASC
         LIMIT $1
        OFFSET $2
    `)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "title", "description", "active", "created_at", "updated_at"}).
		AddRow("role-1", "Care Assistant", "", true, now, now)

	mock.ExpectQuery(query).
		WithArgs(3, 0).
		WillReturnRows(rows)

	roles, nextToken, err := repo.List(context.Background(), jobrole.ListJobRolesFilter{Limit: 2, Offset: 0, ActiveOnly: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(roles) != 1 {
		t.Fatalf("expected 1 job role, got %d", len(roles))
	}

	if nextToken != "" {
		t.Fatalf("expected empty next token, got %s", nextToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJobRoleRepository_List_InvalidArguments(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewJobRoleRepository(mock)

	if _, _, err := repo.List(context.Background(), jobrole.ListJobRolesFilter{Limit: 0, Offset: 0}); !errors.Is(err, jobrole.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}

	if _, _, err := repo.List(context.Background(), jobrole.ListJobRolesFilter{Limit: 1, Offset: -1}); !errors.Is(err, jobrole.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestJobRoleRepository_Delete_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewJobRoleRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM job_roles WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, jobrole.ErrJobRoleNotFound) {
		t.Fatalf("expected ErrJobRoleNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
