package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/timesheet"
	pgdb "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
)

// TimesheetRepository は PostgreSQL を利用したタイムシート永続化の実装です。
type TimesheetRepository struct {
	pool pgdb.Queryer
}

// NewTimesheetRepository は TimesheetRepository を生成します。
func NewTimesheetRepository(pool pgdb.Queryer) *TimesheetRepository {
	return &TimesheetRepository{pool: pool}
}

const timesheetColumns = `id, timesheet_number, assignment_id, booking_request_id, candidate_id, work_date,
               hours_worked::text, hourly_rate::text, total_amount::text, status, notes,
               submitted_at, reviewed_at, reviewed_by, reject_reason, created_at, updated_at`

// Create はタイムシートを新規作成します。
func (r *TimesheetRepository) Create(ctx context.Context, t *timesheet.Timesheet) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO timesheets (
            timesheet_number, assignment_id, booking_request_id, candidate_id, work_date,
            hours_worked, hourly_rate, total_amount, status, notes,
            submitted_at, reviewed_at, reviewed_by, reject_reason, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING `+timesheetColumns+`
    `,
		t.TimesheetNumber,
		t.AssignmentID,
		t.BookingID,
		t.CandidateID,
		t.WorkDate,
		t.HoursWorked.StringFixed(2),
		t.HourlyRate.StringFixed(2),
		t.TotalAmount.StringFixed(2),
		string(t.Status),
		t.Notes,
		nullableTime(t.SubmittedAt),
		nullableTime(t.ReviewedAt),
		t.ReviewedBy,
		t.RejectReason,
		t.CreatedAt,
		t.UpdatedAt,
	)

	created, err := scanTimesheet(row)
	if err != nil {
		return nil, translateTimesheetPgError(err)
	}
	return created, nil
}

// Update はタイムシートを更新します。
func (r *TimesheetRepository) Update(ctx context.Context, t *timesheet.Timesheet) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE timesheets
           SET status = $1,
               notes = $2,
               submitted_at = $3,
               reviewed_at = $4,
               reviewed_by = $5,
               reject_reason = $6,
               updated_at = $7
         WHERE id = $8
        RETURNING `+timesheetColumns+`
    `,
		string(t.Status),
		t.Notes,
		nullableTime(t.SubmittedAt),
		nullableTime(t.ReviewedAt),
		t.ReviewedBy,
		t.RejectReason,
		t.UpdatedAt,
		t.ID,
	)

	updated, err := scanTimesheet(row)
	if err != nil {
		return nil, translateTimesheetPgError(err)
	}
	return updated, nil
}

// FindByID は ID でタイムシートを取得します。
func (r *TimesheetRepository) FindByID(ctx context.Context, id string) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+timesheetColumns+`
          FROM timesheets
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanTimesheet(row)
	if err != nil {
		return nil, translateTimesheetPgError(err)
	}
	return found, nil
}

// FindByAssignmentID はアサイン ID でタイムシートを取得します。
func (r *TimesheetRepository) FindByAssignmentID(ctx context.Context, assignmentID string) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+timesheetColumns+`
          FROM timesheets
         WHERE assignment_id = $1
         LIMIT 1
    `, assignmentID)

	found, err := scanTimesheet(row)
	if err != nil {
		return nil, translateTimesheetPgError(err)
	}
	return found, nil
}

// List はタイムシートの一覧を取得します。
func (r *TimesheetRepository) List(ctx context.Context, filter timesheet.ListTimesheetsFilter) ([]*timesheet.Timesheet, string, error) {
	if filter.Limit <= 0 {
		return nil, "", timesheet.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", timesheet.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 6)
	conditions := make([]string, 0, 4)

	if filter.CandidateID != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "candidate_id = "+placeholder)
		args = append(args, filter.CandidateID)
	}

	if filter.Status != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "status = "+placeholder)
		args = append(args, string(*filter.Status))
	}

	if filter.From != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "work_date >= "+placeholder)
		args = append(args, *filter.From)
	}

	if filter.To != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "work_date <= "+placeholder)
		args = append(args, *filter.To)
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
        SELECT ` + timesheetColumns + `
          FROM timesheets` + whereClause + `
         ORDER BY work_date DESC, timesheet_number DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateTimesheetPgError(err)
	}
	defer rows.Close()

	timesheets := make([]*timesheet.Timesheet, 0, filter.Limit)
	for rows.Next() {
		t, err := scanTimesheet(rows)
		if err != nil {
			return nil, "", translateTimesheetPgError(err)
		}
		timesheets = append(timesheets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateTimesheetPgError(err)
	}

	var nextToken string
	if len(timesheets) == limitWithBuffer {
		timesheets = timesheets[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return timesheets, nextToken, nil
}

// NextSequence は勤務日内の次の連番を払い出します。
func (r *TimesheetRepository) NextSequence(ctx context.Context, workDate time.Time) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT COUNT(*) + 1
          FROM timesheets
         WHERE work_date = $1
    `, workDate)

	var seq int
	if err := row.Scan(&seq); err != nil {
		return 0, translateTimesheetPgError(err)
	}
	return seq, nil
}

func scanTimesheet(row pgx.Row) (*timesheet.Timesheet, error) {
	var (
		id              string
		timesheetNumber string
		assignmentID    string
		bookingID       string
		candidateID     string
		workDate        time.Time
		hoursWorked     string
		hourlyRate      string
		totalAmount     string
		status          string
		notes           string
		submittedAt     sql.NullTime
		reviewedAt      sql.NullTime
		reviewedBy      string
		rejectReason    string
		createdAt       time.Time
		updatedAt       time.Time
	)

	if err := row.Scan(
		&id,
		&timesheetNumber,
		&assignmentID,
		&bookingID,
		&candidateID,
		&workDate,
		&hoursWorked,
		&hourlyRate,
		&totalAmount,
		&status,
		&notes,
		&submittedAt,
		&reviewedAt,
		&reviewedBy,
		&rejectReason,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, timesheet.ErrTimesheetNotFound
		}
		return nil, err
	}

	hours, err := decimal.NewFromString(hoursWorked)
	if err != nil {
		return nil, err
	}

	rate, err := decimal.NewFromString(hourlyRate)
	if err != nil {
		return nil, err
	}

	total, err := decimal.NewFromString(totalAmount)
	if err != nil {
		return nil, err
	}

	return &timesheet.Timesheet{
		ID:              id,
		TimesheetNumber: timesheetNumber,
		AssignmentID:    assignmentID,
		BookingID:       bookingID,
		CandidateID:     candidateID,
		WorkDate:        workDate,
		HoursWorked:     hours,
		HourlyRate:      rate,
		TotalAmount:     total,
		Status:          timesheet.Status(status),
		Notes:           notes,
		SubmittedAt:     timePtrFromNull(submittedAt),
		ReviewedAt:      timePtrFromNull(reviewedAt),
		ReviewedBy:      reviewedBy,
		RejectReason:    rejectReason,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func translateTimesheetPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			// timesheet_number の衝突は採番競合であって二重起票ではない。
			// ErrAlreadyExists はアサイン単位の一意制約に限って返します。
			if pgErr.ConstraintName == "timesheets_assignment_id_key" {
				return timesheet.ErrAlreadyExists
			}
			return err
		case foreignKeyViolationCode:
			return timesheet.ErrAssignmentNotFound
		}
	}
	return err
}
