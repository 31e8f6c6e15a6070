package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"
	pgdb "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
)

// CandidateRepository は PostgreSQL を利用した候補者永続化の実装です。
// 取得系は職種の書類要件と提出記録のスナップショットを併せて読み込みます。
type CandidateRepository struct {
	pool pgdb.Queryer
}

// NewCandidateRepository は CandidateRepository を生成します。
func NewCandidateRepository(pool pgdb.Queryer) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

const candidateColumns = `id, job_role_id, first_name, last_name, email, phone, city, postcode, availability, status, created_at, updated_at`

// Create は候補者を新規作成します。
func (r *CandidateRepository) Create(ctx context.Context, c *candidate.Candidate) (*candidate.Candidate, error) {
	availability, err := marshalAvailability(c.Availability)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO candidates (job_role_id, first_name, last_name, email, phone, city, postcode, availability, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+candidateColumns+`
    `,
		c.JobRoleID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.City,
		c.Postcode,
		availability,
		string(c.Status),
		c.CreatedAt,
		c.UpdatedAt,
	)

	created, err := scanCandidate(row)
	if err != nil {
		return nil, translateCandidatePgError(err)
	}
	return created, nil
}

// Update は候補者を更新します。
func (r *CandidateRepository) Update(ctx context.Context, c *candidate.Candidate) (*candidate.Candidate, error) {
	availability, err := marshalAvailability(c.Availability)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE candidates
           SET first_name = $1,
               last_name = $2,
               phone = $3,
               city = $4,
               postcode = $5,
               availability = $6,
               status = $7,
               updated_at = $8
         WHERE id = $9
        RETURNING `+candidateColumns+`
    `,
		c.FirstName,
		c.LastName,
		c.Phone,
		c.City,
		c.Postcode,
		availability,
		string(c.Status),
		c.UpdatedAt,
		c.ID,
	)

	updated, err := scanCandidate(row)
	if err != nil {
		return nil, translateCandidatePgError(err)
	}
	return updated, nil
}

// Delete は候補者を削除します。
func (r *CandidateRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return translateCandidatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return candidate.ErrCandidateNotFound
	}
	return nil
}

// FindByID は ID で候補者を取得します。
func (r *CandidateRepository) FindByID(ctx context.Context, id string) (*candidate.Candidate, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+candidateColumns+`
          FROM candidates
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanCandidate(row)
	if err != nil {
		return nil, translateCandidatePgError(err)
	}

	if err := r.loadComplianceSnapshot(ctx, exec, found); err != nil {
		return nil, translateCandidatePgError(err)
	}

	return found, nil
}

// FindByEmail はメールアドレスで候補者を取得します。
func (r *CandidateRepository) FindByEmail(ctx context.Context, email string) (*candidate.Candidate, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+candidateColumns+`
          FROM candidates
         WHERE email = $1
         LIMIT 1
    `, email)

	found, err := scanCandidate(row)
	if err != nil {
		return nil, translateCandidatePgError(err)
	}
	return found, nil
}

// List は候補者の一覧を取得します。
func (r *CandidateRepository) List(ctx context.Context, filter candidate.ListCandidatesFilter) ([]*candidate.Candidate, string, error) {
	if filter.Limit <= 0 {
		return nil, "", candidate.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", candidate.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 5)
	conditions := make([]string, 0, 3)

	if filter.JobRoleID != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "job_role_id = "+placeholder)
		args = append(args, filter.JobRoleID)
	}

	if filter.Status != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "status = "+placeholder)
		args = append(args, string(*filter.Status))
	}

	if filter.AvailableOn != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "availability @> jsonb_build_array("+placeholder+"::text)")
		args = append(args, filter.AvailableOn)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + candidateColumns + `
          FROM candidates` + whereClause + `
         ORDER BY last_name ASC, first_name ASC, id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateCandidatePgError(err)
	}
	defer rows.Close()

	candidates := make([]*candidate.Candidate, 0, filter.Limit)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, "", translateCandidatePgError(err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateCandidatePgError(err)
	}

	var nextToken string
	if len(candidates) == limitWithBuffer {
		candidates = candidates[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	for _, c := range candidates {
		if err := r.loadComplianceSnapshot(ctx, exec, c); err != nil {
			return nil, "", translateCandidatePgError(err)
		}
	}

	return candidates, nextToken, nil
}

// CreateComplianceRecords は提出記録をまとめて作成します。
func (r *CandidateRepository) CreateComplianceRecords(ctx context.Context, records []*candidate.ComplianceRecord) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	for _, record := range records {
		if _, err := exec.Exec(ctx, `
            INSERT INTO candidate_compliance (candidate_id, document_id, status, expiry_date, notes, verified_by, verified_at, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        `,
			record.CandidateID,
			record.DocumentID,
			string(record.Status),
			nullableTime(record.ExpiryDate),
			record.Notes,
			record.VerifiedBy,
			nullableTime(record.VerifiedAt),
			record.CreatedAt,
			record.UpdatedAt,
		); err != nil {
			return translateCandidatePgError(err)
		}
	}
	return nil
}

const complianceRecordColumns = `cc.id, cc.candidate_id, cc.document_id, cc.status, cc.expiry_date, cc.notes, cc.verified_by, cc.verified_at, cc.created_at, cc.updated_at,
               cd.id, cd.name, cd.required, cd.requires_expiry`

// FindComplianceRecord は ID で提出記録を取得します。
func (r *CandidateRepository) FindComplianceRecord(ctx context.Context, id string) (*candidate.ComplianceRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+complianceRecordColumns+`
          FROM candidate_compliance cc
          JOIN compliance_documents cd ON cd.id = cc.document_id
         WHERE cc.id = $1
         LIMIT 1
    `, id)

	found, err := scanComplianceRecord(row)
	if err != nil {
		return nil, translateCandidatePgError(err)
	}
	return found, nil
}

// UpdateComplianceRecord は提出記録を更新します。
func (r *CandidateRepository) UpdateComplianceRecord(ctx context.Context, record *candidate.ComplianceRecord) (*candidate.ComplianceRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH updated AS (
            UPDATE candidate_compliance
               SET status = $1,
                   expiry_date = $2,
                   notes = $3,
                   verified_by = $4,
                   verified_at = $5,
                   updated_at = $6
             WHERE id = $7
            RETURNING id, candidate_id, document_id, status, expiry_date, notes, verified_by, verified_at, created_at, updated_at
        )
        SELECT cc.id, cc.candidate_id, cc.document_id, cc.status, cc.expiry_date, cc.notes, cc.verified_by, cc.verified_at, cc.created_at, cc.updated_at,
               cd.id, cd.name, cd.required, cd.requires_expiry
          FROM updated cc
          JOIN compliance_documents cd ON cd.id = cc.document_id
    `,
		string(record.Status),
		nullableTime(record.ExpiryDate),
		record.Notes,
		record.VerifiedBy,
		nullableTime(record.VerifiedAt),
		record.UpdatedAt,
		record.ID,
	)

	updated, err := scanComplianceRecord(row)
	if err != nil {
		return nil, translateCandidatePgError(err)
	}
	return updated, nil
}

func (r *CandidateRepository) loadComplianceSnapshot(ctx context.Context, exec pgdb.Queryer, c *candidate.Candidate) error {
	docRows, err := exec.Query(ctx, `
        SELECT id, name, required, requires_expiry
          FROM compliance_documents
         WHERE job_role_id = $1
         ORDER BY name ASC, id ASC
    `, c.JobRoleID)
	if err != nil {
		return err
	}
	defer docRows.Close()

	requirements := make([]candidate.DocumentRequirement, 0)
	for docRows.Next() {
		var req candidate.DocumentRequirement
		if err := docRows.Scan(&req.DocumentID, &req.Name, &req.Required, &req.RequiresExpiry); err != nil {
			return err
		}
		requirements = append(requirements, req)
	}
	if err := docRows.Err(); err != nil {
		return err
	}

	recordRows, err := exec.Query(ctx, `
        SELECT `+complianceRecordColumns+`
          FROM candidate_compliance cc
          JOIN compliance_documents cd ON cd.id = cc.document_id
         WHERE cc.candidate_id = $1
         ORDER BY cd.name ASC, cc.id ASC
    `, c.ID)
	if err != nil {
		return err
	}
	defer recordRows.Close()

	records := make([]*candidate.ComplianceRecord, 0)
	for recordRows.Next() {
		record, err := scanComplianceRecord(recordRows)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	if err := recordRows.Err(); err != nil {
		return err
	}

	c.Requirements = requirements
	c.Compliance = records
	return nil
}

func marshalAvailability(dates []string) ([]byte, error) {
	if dates == nil {
		dates = []string{}
	}
	b, err := json.Marshal(dates)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanCandidate(row pgx.Row) (*candidate.Candidate, error) {
	var (
		id           string
		jobRoleID    string
		firstName    string
		lastName     string
		email        string
		phone        string
		city         string
		postcode     string
		availability []byte
		status       string
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := row.Scan(
		&id,
		&jobRoleID,
		&firstName,
		&lastName,
		&email,
		&phone,
		&city,
		&postcode,
		&availability,
		&status,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, candidate.ErrCandidateNotFound
		}
		return nil, err
	}

	var dates []string
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &dates); err != nil {
			return nil, err
		}
	}

	return &candidate.Candidate{
		ID:           id,
		JobRoleID:    jobRoleID,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Phone:        phone,
		City:         city,
		Postcode:     postcode,
		Availability: dates,
		Status:       candidate.Status(status),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func scanComplianceRecord(row pgx.Row) (*candidate.ComplianceRecord, error) {
	var (
		id             string
		candidateID    string
		documentID     string
		status         string
		expiryDate     sql.NullTime
		notes          string
		verifiedBy     string
		verifiedAt     sql.NullTime
		createdAt      time.Time
		updatedAt      time.Time
		docID          string
		docName        string
		docRequired    bool
		requiresExpiry bool
	)

	if err := row.Scan(
		&id,
		&candidateID,
		&documentID,
		&status,
		&expiryDate,
		&notes,
		&verifiedBy,
		&verifiedAt,
		&createdAt,
		&updatedAt,
		&docID,
		&docName,
		&docRequired,
		&requiresExpiry,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, candidate.ErrRecordNotFound
		}
		return nil, err
	}

	return &candidate.ComplianceRecord{
		ID:          id,
		CandidateID: candidateID,
		DocumentID:  documentID,
		Status:      candidate.ComplianceStatus(status),
		ExpiryDate:  timePtrFromNull(expiryDate),
		Notes:       notes,
		VerifiedBy:  verifiedBy,
		VerifiedAt:  timePtrFromNull(verifiedAt),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		Document: &candidate.DocumentRequirement{
			DocumentID:     docID,
			Name:           docName,
			Required:       docRequired,
			RequiresExpiry: requiresExpiry,
		},
	}, nil
}

func translateCandidatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return candidate.ErrEmailAlreadyExists
		case foreignKeyViolationCode:
			return candidate.ErrJobRoleNotFound
		}
	}
	return err
}
