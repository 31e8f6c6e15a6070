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

	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
	pgdb "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
)

// BookingRepository は PostgreSQL を利用した予約とアサイン永続化の実装です。
// 取得系はアサイン一覧を含めて返します。
type BookingRepository struct {
	pool pgdb.Queryer
}

// NewBookingRepository は BookingRepository を生成します。
func NewBookingRepository(pool pgdb.Queryer) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, client_id, job_role_id, location, description, shift_start, shift_end,
               candidates_needed, work_type, client_rate::text, worker_rate::text, status,
               special_requirements, created_at, updated_at`

const assignmentColumns = `id, booking_request_id, candidate_id, status, notes, check_in_at, check_out_at, created_at, updated_at`

// Create は予約を新規作成します。
func (r *BookingRepository) Create(ctx context.Context, b *booking.BookingRequest) (*booking.BookingRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO booking_requests (
            client_id, job_role_id, location, description, shift_start, shift_end,
            candidates_needed, work_type, client_rate, worker_rate, status,
            special_requirements, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING `+bookingColumns+`
    `,
		b.ClientID,
		b.JobRoleID,
		b.Location,
		b.Description,
		b.ShiftStart,
		b.ShiftEnd,
		b.CandidatesNeeded,
		string(b.WorkType),
		b.ClientRate.StringFixed(2),
		b.WorkerRate.StringFixed(2),
		string(b.Status),
		b.SpecialRequirements,
		b.CreatedAt,
		b.UpdatedAt,
	)

	created, err := scanBooking(row)
	if err != nil {
		return nil, translateBookingPgError(err)
	}

	created.Assignments = []*booking.Assignment{}
	return created, nil
}

// Update は予約を更新します。
func (r *BookingRepository) Update(ctx context.Context, b *booking.BookingRequest) (*booking.BookingRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE booking_requests
           SET location = $1,
               description = $2,
               candidates_needed = $3,
               status = $4,
               special_requirements = $5,
               updated_at = $6
         WHERE id = $7
        RETURNING `+bookingColumns+`
    `,
		b.Location,
		b.Description,
		b.CandidatesNeeded,
		string(b.Status),
		b.SpecialRequirements,
		b.UpdatedAt,
		b.ID,
	)

	updated, err := scanBooking(row)
	if err != nil {
		return nil, translateBookingPgError(err)
	}

	if err := r.loadAssignments(ctx, exec, updated); err != nil {
		return nil, translateBookingPgError(err)
	}

	return updated, nil
}

// FindByID は ID で予約を取得します。
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*booking.BookingRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+bookingColumns+`
          FROM booking_requests
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanBooking(row)
	if err != nil {
		return nil, translateBookingPgError(err)
	}

	if err := r.loadAssignments(ctx, exec, found); err != nil {
		return nil, translateBookingPgError(err)
	}

	return found, nil
}

// List は予約の一覧を取得します。
func (r *BookingRepository) List(ctx context.Context, filter booking.ListBookingsFilter) ([]*booking.BookingRequest, string, error) {
	if filter.Limit <= 0 {
		return nil, "", booking.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", booking.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 7)
	conditions := make([]string, 0, 5)

	if filter.ClientID != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "client_id = "+placeholder)
		args = append(args, filter.ClientID)
	}

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

	if filter.From != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "shift_start >= "+placeholder)
		args = append(args, *filter.From)
	}

	if filter.To != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "shift_start < "+placeholder)
		args = append(args, filter.To.AddDate(0, 0, 1))
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
        SELECT ` + bookingColumns + `
          FROM booking_requests` + whereClause + `
         ORDER BY shift_start DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateBookingPgError(err)
	}
	defer rows.Close()

	bookings := make([]*booking.BookingRequest, 0, filter.Limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, "", translateBookingPgError(err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateBookingPgError(err)
	}

	var nextToken string
	if len(bookings) == limitWithBuffer {
		bookings = bookings[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	for _, b := range bookings {
		if err := r.loadAssignments(ctx, exec, b); err != nil {
			return nil, "", translateBookingPgError(err)
		}
	}

	return bookings, nextToken, nil
}

// CreateAssignment はアサインを新規作成します。
func (r *BookingRepository) CreateAssignment(ctx context.Context, a *booking.Assignment) (*booking.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO assignments (booking_request_id, candidate_id, status, notes, check_in_at, check_out_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+assignmentColumns+`
    `,
		a.BookingID,
		a.CandidateID,
		string(a.Status),
		a.Notes,
		nullableTime(a.CheckInAt),
		nullableTime(a.CheckOutAt),
		a.CreatedAt,
		a.UpdatedAt,
	)

	created, err := scanAssignment(row)
	if err != nil {
		return nil, translateBookingPgError(err)
	}
	return created, nil
}

// UpdateAssignment はアサインを更新します。
func (r *BookingRepository) UpdateAssignment(ctx context.Context, a *booking.Assignment) (*booking.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE assignments
           SET status = $1,
               notes = $2,
               check_in_at = $3,
               check_out_at = $4,
               updated_at = $5
         WHERE id = $6
        RETURNING `+assignmentColumns+`
    `,
		string(a.Status),
		a.Notes,
		nullableTime(a.CheckInAt),
		nullableTime(a.CheckOutAt),
		a.UpdatedAt,
		a.ID,
	)

	updated, err := scanAssignment(row)
	if err != nil {
		return nil, translateBookingPgError(err)
	}
	return updated, nil
}

// FindAssignment は ID でアサインを取得します。
func (r *BookingRepository) FindAssignment(ctx context.Context, id string) (*booking.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
          FROM assignments
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanAssignment(row)
	if err != nil {
		return nil, translateBookingPgError(err)
	}
	return found, nil
}

func (r *BookingRepository) loadAssignments(ctx context.Context, exec pgdb.Queryer, b *booking.BookingRequest) error {
	rows, err := exec.Query(ctx, `
        SELECT `+assignmentColumns+`
          FROM assignments
         WHERE booking_request_id = $1
         ORDER BY created_at ASC, id ASC
    `, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	assignments := make([]*booking.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return err
	}

	b.Assignments = assignments
	return nil
}

func scanBooking(row pgx.Row) (*booking.BookingRequest, error) {
	var (
		id                  string
		clientID            string
		jobRoleID           string
		location            string
		description         string
		shiftStart          time.Time
		shiftEnd            time.Time
		candidatesNeeded    int
		workType            string
		clientRate          string
		workerRate          string
		status              string
		specialRequirements string
		createdAt           time.Time
		updatedAt           time.Time
	)

	if err := row.Scan(
		&id,
		&clientID,
		&jobRoleID,
		&location,
		&description,
		&shiftStart,
		&shiftEnd,
		&candidatesNeeded,
		&workType,
		&clientRate,
		&workerRate,
		&status,
		&specialRequirements,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}

	clientDec, err := decimal.NewFromString(clientRate)
	if err != nil {
		return nil, err
	}

	workerDec, err := decimal.NewFromString(workerRate)
	if err != nil {
		return nil, err
	}

	return &booking.BookingRequest{
		ID:                  id,
		ClientID:            clientID,
		JobRoleID:           jobRoleID,
		Location:            location,
		Description:         description,
		ShiftStart:          shiftStart,
		ShiftEnd:            shiftEnd,
		CandidatesNeeded:    candidatesNeeded,
		WorkType:            ratecard.WorkType(workType),
		ClientRate:          clientDec,
		WorkerRate:          workerDec,
		Status:              booking.Status(status),
		SpecialRequirements: specialRequirements,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}, nil
}

func scanAssignment(row pgx.Row) (*booking.Assignment, error) {
	var (
		id          string
		bookingID   string
		candidateID string
		status      string
		notes       string
		checkInAt   sql.NullTime
		checkOutAt  sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(
		&id,
		&bookingID,
		&candidateID,
		&status,
		&notes,
		&checkInAt,
		&checkOutAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrAssignmentNotFound
		}
		return nil, err
	}

	return &booking.Assignment{
		ID:          id,
		BookingID:   bookingID,
		CandidateID: candidateID,
		Status:      booking.AssignmentStatus(status),
		Notes:       notes,
		CheckInAt:   timePtrFromNull(checkInAt),
		CheckOutAt:  timePtrFromNull(checkOutAt),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func translateBookingPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return booking.ErrAlreadyAssigned
		case foreignKeyViolationCode:
			switch {
			case strings.Contains(pgErr.ConstraintName, "client"):
				return booking.ErrClientNotFound
			case strings.Contains(pgErr.ConstraintName, "job_role"):
				return booking.ErrJobRoleNotFound
			case strings.Contains(pgErr.ConstraintName, "candidate"):
				return booking.ErrCandidateNotFound
			default:
				return booking.ErrBookingNotFound
			}
		}
	}
	return err
}
