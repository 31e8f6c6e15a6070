package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/jobrole"
	pgdb "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// JobRoleRepository は PostgreSQL を利用した職種永続化の実装です。
type JobRoleRepository struct {
	pool pgdb.Queryer
}

// NewJobRoleRepository は JobRoleRepository を生成します。
func NewJobRoleRepository(pool pgdb.Queryer) *JobRoleRepository {
	return &JobRoleRepository{pool: pool}
}

// Create は職種を新規作成します。
func (r *JobRoleRepository) Create(ctx context.Context, role *jobrole.JobRole) (*jobrole.JobRole, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO job_roles (title, description, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, title, description, active, created_at, updated_at
    `, role.Title, role.Description, role.Active, role.CreatedAt, role.UpdatedAt)

	created, err := scanJobRole(row)
	if err != nil {
		return nil, translateJobRolePgError(err)
	}
	return created, nil
}

// Update は職種を更新します。
func (r *JobRoleRepository) Update(ctx context.Context, role *jobrole.JobRole) (*jobrole.JobRole, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE job_roles
           SET title = $1,
               description = $2,
               active = $3,
               updated_at = $4
         WHERE id = $5
        RETURNING id, title, description, active, created_at, updated_at
    `, role.Title, role.Description, role.Active, role.UpdatedAt, role.ID)

	updated, err := scanJobRole(row)
	if err != nil {
		return nil, translateJobRolePgError(err)
	}
	return updated, nil
}

// Delete は職種を削除します。参照されている場合は ErrJobRoleInUse を返します。
func (r *JobRoleRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM job_roles WHERE id = $1`, id)
	if err != nil {
		return translateJobRolePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return jobrole.ErrJobRoleNotFound
	}
	return nil
}

// FindByID は ID で職種を取得します。
func (r *JobRoleRepository) FindByID(ctx context.Context, id string) (*jobrole.JobRole, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, title, description, active, created_at, updated_at
          FROM job_roles
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanJobRole(row)
	if err != nil {
		return nil, translateJobRolePgError(err)
	}
	return found, nil
}

// FindByTitle は名称で職種を取得します。
func (r *JobRoleRepository) FindByTitle(ctx context.Context, title string) (*jobrole.JobRole, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, title, description, active, created_at, updated_at
          FROM job_roles
         WHERE title = $1
         LIMIT 1
    `, title)

	found, err := scanJobRole(row)
	if err != nil {
		return nil, translateJobRolePgError(err)
	}
	return found, nil
}

// List は職種の一覧を取得します。
func (r *JobRoleRepository) List(ctx context.Context, filter jobrole.ListJobRolesFilter) ([]*jobrole.JobRole, string, error) {
	if filter.Limit <= 0 {
		return nil, "", jobrole.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", jobrole.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	whereClause := ""
	args := make([]any, 0, 2)
	if filter.ActiveOnly {
		whereClause = " WHERE active = TRUE"
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT id, title, description, active, created_at, updated_at
          FROM job_roles` + whereClause + `
         ORDER BY title ASC, id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateJobRolePgError(err)
	}
	defer rows.Close()

	roles := make([]*jobrole.JobRole, 0, filter.Limit)
	for rows.Next() {
		role, err := scanJobRole(rows)
		if err != nil {
			return nil, "", translateJobRolePgError(err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateJobRolePgError(err)
	}

	var nextToken string
	if len(roles) == limitWithBuffer {
		roles = roles[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return roles, nextToken, nil
}

// AddComplianceDocument は職種に書類定義を追加します。
func (r *JobRoleRepository) AddComplianceDocument(ctx context.Context, doc *jobrole.ComplianceDocument) (*jobrole.ComplianceDocument, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO compliance_documents (job_role_id, name, required, requires_expiry, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, job_role_id, name, required, requires_expiry, created_at, updated_at
    `, doc.JobRoleID, doc.Name, doc.Required, doc.RequiresExpiry, doc.CreatedAt, doc.UpdatedAt)

	created, err := scanComplianceDocument(row)
	if err != nil {
		return nil, translateJobRolePgError(err)
	}
	return created, nil
}

// RemoveComplianceDocument は書類定義を削除します。
func (r *JobRoleRepository) RemoveComplianceDocument(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM compliance_documents WHERE id = $1`, id)
	if err != nil {
		return translateJobRolePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return jobrole.ErrDocumentNotFound
	}
	return nil
}

// ListComplianceDocuments は職種の書類定義一覧を取得します。
func (r *JobRoleRepository) ListComplianceDocuments(ctx context.Context, jobRoleID string) ([]*jobrole.ComplianceDocument, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, job_role_id, name, required, requires_expiry, created_at, updated_at
          FROM compliance_documents
         WHERE job_role_id = $1
         ORDER BY name ASC, id ASC
    `, jobRoleID)
	if err != nil {
		return nil, translateJobRolePgError(err)
	}
	defer rows.Close()

	docs := make([]*jobrole.ComplianceDocument, 0)
	for rows.Next() {
		doc, err := scanComplianceDocument(rows)
		if err != nil {
			return nil, translateJobRolePgError(err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, translateJobRolePgError(err)
	}

	return docs, nil
}

func scanJobRole(row pgx.Row) (*jobrole.JobRole, error) {
	var (
		id          string
		title       string
		description string
		active      bool
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&id, &title, &description, &active, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jobrole.ErrJobRoleNotFound
		}
		return nil, err
	}

	return &jobrole.JobRole{
		ID:          id,
		Title:       title,
		Description: description,
		Active:      active,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func scanComplianceDocument(row pgx.Row) (*jobrole.ComplianceDocument, error) {
	var (
		id             string
		jobRoleID      string
		name           string
		required       bool
		requiresExpiry bool
		createdAt      time.Time
		updatedAt      time.Time
	)

	if err := row.Scan(&id, &jobRoleID, &name, &required, &requiresExpiry, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jobrole.ErrDocumentNotFound
		}
		return nil, err
	}

	return &jobrole.ComplianceDocument{
		ID:             id,
		JobRoleID:      jobRoleID,
		Name:           name,
		Required:       required,
		RequiresExpiry: requiresExpiry,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func translateJobRolePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.TableName == "compliance_documents" {
				return jobrole.ErrDocumentAlreadyExists
			}
			return jobrole.ErrTitleAlreadyExists
		case foreignKeyViolationCode:
			if pgErr.TableName == "compliance_documents" {
				return jobrole.ErrJobRoleNotFound
			}
			return jobrole.ErrJobRoleInUse
		}
	}
	return err
}
