package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/audit"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。アサイン作成は
// 読み取り・判定・書き込みを 1 つのトランザクションで行う必要があるため、
// 直列化レベルでの実行も提供します。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
	WithinSerializable(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinSerializable(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は予約とアサインに関するユースケースをまとめます。
type Service struct {
	repo       Repository
	candidates CandidateDirectory
	rates      RateCardSource
	clock      Clock
	tx         TransactionManager
	auditor    audit.Recorder
	calendar   ratecard.HolidayCalendar
}

// UseCase は予約ユースケースの公開インターフェースです。
type UseCase interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingRequest, error)
	UpdateBooking(ctx context.Context, in UpdateBookingInput) (*BookingRequest, error)
	CancelBooking(ctx context.Context, in CancelBookingInput) (*BookingRequest, error)
	GetBooking(ctx context.Context, in GetBookingInput) (*BookingRequest, error)
	ListBookings(ctx context.Context, in ListBookingsInput) (*ListBookingsResult, error)
	CheckCandidateEligibility(ctx context.Context, in CheckEligibilityInput) (*CheckEligibilityResult, error)
	AssignCandidate(ctx context.Context, in AssignCandidateInput) (*Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, in UpdateAssignmentStatusInput) (*Assignment, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, candidates CandidateDirectory, rates RateCardSource, clock Clock, tx TransactionManager, auditor audit.Recorder, calendar ratecard.HolidayCalendar) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if auditor == nil {
		auditor = audit.Noop{}
	}
	return &Service{
		repo:       repo,
		candidates: candidates,
		rates:      rates,
		clock:      clock,
		tx:         tx,
		auditor:    auditor,
		calendar:   calendar,
	}
}

// CreateBookingInput は予約作成時の入力です。
type CreateBookingInput struct {
	ClientID            string
	JobRoleID           string
	Location            string
	Description         string
	ShiftStart          time.Time
	ShiftEnd            time.Time
	CandidatesNeeded    int
	SpecialRequirements string
	Actor               string
}

// UpdateBookingInput は予約更新時の入力です。
type UpdateBookingInput struct {
	ID                  string
	Location            *string
	Description         *string
	CandidatesNeeded    *int
	SpecialRequirements *string
	Actor               string
}

// CancelBookingInput は予約キャンセル時の入力です。
type CancelBookingInput struct {
	ID    string
	Actor string
}

// GetBookingInput は予約取得時の入力です。
type GetBookingInput struct {
	ID string
}

// ListBookingsInput は一覧取得時の入力です。
type ListBookingsInput struct {
	ClientID  string
	JobRoleID string
	Status    *Status
	From      *time.Time
	To        *time.Time
	PageSize  int
	PageToken string
}

// ListBookingsResult は一覧取得結果を表します。
type ListBookingsResult struct {
	Bookings      []*BookingRequest
	NextPageToken string
}

// CheckEligibilityInput はアサイン可否照会時の入力です。
type CheckEligibilityInput struct {
	BookingID   string
	CandidateID string
}

// CheckEligibilityResult はアサイン可否照会の結果です。
type CheckEligibilityResult struct {
	Eligibility        EligibilityResult
	RemainingPositions int
}

// AssignCandidateInput はアサイン作成時の入力です。
type AssignCandidateInput struct {
	BookingID   string
	CandidateID string
	Notes       string
	Actor       string
}

// UpdateAssignmentStatusInput はアサイン状態更新時の入力です。
type UpdateAssignmentStatusInput struct {
	AssignmentID string
	Status       AssignmentStatus
	CheckInAt    *time.Time
	CheckOutAt   *time.Time
	Notes        *string
	Actor        string
}

// CreateBooking は新しい予約を作成します。シフト開始時刻から請求区分を判定し、
// その時点で適用されるレート表のレートを予約に写し取ります。
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingRequest, error) {
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		return nil, ErrInvalidClientID
	}

	jobRoleID := strings.TrimSpace(in.JobRoleID)
	if jobRoleID == "" {
		return nil, ErrInvalidJobRoleID
	}

	if in.ShiftStart.IsZero() || in.ShiftEnd.IsZero() || !in.ShiftEnd.After(in.ShiftStart) {
		return nil, ErrInvalidShiftWindow
	}

	if in.CandidatesNeeded <= 0 {
		return nil, ErrInvalidHeadcount
	}

	workType := ratecard.ClassifyShift(in.ShiftStart, s.calendar)

	var created *BookingRequest
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		cards, err := s.rates.ListForClientRole(txCtx, clientID, jobRoleID)
		if err != nil {
			return err
		}

		quote, err := ratecard.ResolveRate(cards, jobRoleID, workType, in.ShiftStart)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		b := &BookingRequest{
			ClientID:            clientID,
			JobRoleID:           jobRoleID,
			Location:            strings.TrimSpace(in.Location),
			Description:         strings.TrimSpace(in.Description),
			ShiftStart:          in.ShiftStart,
			ShiftEnd:            in.ShiftEnd,
			CandidatesNeeded:    in.CandidatesNeeded,
			WorkType:            workType,
			ClientRate:          quote.ClientRate,
			WorkerRate:          quote.WorkerRate,
			Status:              StatusOpen,
			SpecialRequirements: strings.TrimSpace(in.SpecialRequirements),
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		result, err := s.repo.Create(txCtx, b)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "booking.created", "booking_request", created.ID, nil, created, s.clock.Now()))
	return created, nil
}

// UpdateBooking は予約を更新します。必要人数の変更に応じて充足状態も再導出します。
func (s *Service) UpdateBooking(ctx context.Context, in UpdateBookingInput) (*BookingRequest, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before  *BookingRequest
		updated *BookingRequest
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if existing.Status == StatusCancelled {
			return ErrBookingCancelled
		}

		snapshot := *existing
		before = &snapshot

		if in.Location != nil {
			existing.Location = strings.TrimSpace(*in.Location)
		}

		if in.Description != nil {
			existing.Description = strings.TrimSpace(*in.Description)
		}

		if in.CandidatesNeeded != nil {
			if *in.CandidatesNeeded <= 0 {
				return ErrInvalidHeadcount
			}
			existing.CandidatesNeeded = *in.CandidatesNeeded
		}

		if in.SpecialRequirements != nil {
			existing.SpecialRequirements = strings.TrimSpace(*in.SpecialRequirements)
		}

		existing.Status = DeriveStatus(existing.Status, existing.CandidatesNeeded, existing.Assignments)
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "booking.updated", "booking_request", updated.ID, before, updated, s.clock.Now()))
	return updated, nil
}

// CancelBooking は予約をキャンセルします。どの状態からでも遷移できます。
func (s *Service) CancelBooking(ctx context.Context, in CancelBookingInput) (*BookingRequest, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before    *BookingRequest
		cancelled *BookingRequest
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		snapshot := *existing
		before = &snapshot

		existing.Status = StatusCancelled
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		cancelled = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "booking.cancelled", "booking_request", cancelled.ID, before, cancelled, s.clock.Now()))
	return cancelled, nil
}

// GetBooking は予約を取得します。
func (s *Service) GetBooking(ctx context.Context, in GetBookingInput) (*BookingRequest, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *BookingRequest
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListBookings は予約の一覧を取得します。
func (s *Service) ListBookings(ctx context.Context, in ListBookingsInput) (*ListBookingsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return nil, ErrInvalidDateRange
	}

	var (
		bookings  []*BookingRequest
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListBookingsFilter{
			ClientID:  strings.TrimSpace(in.ClientID),
			JobRoleID: strings.TrimSpace(in.JobRoleID),
			Status:    statusPtr,
			From:      in.From,
			To:        in.To,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			return err
		}
		bookings = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListBookingsResult{Bookings: bookings, NextPageToken: nextToken}, nil
}

// CheckCandidateEligibility はアサインを作成せずに可否判定だけを返します。
func (s *Service) CheckCandidateEligibility(ctx context.Context, in CheckEligibilityInput) (*CheckEligibilityResult, error) {
	bookingID := strings.TrimSpace(in.BookingID)
	if bookingID == "" {
		return nil, fmt.Errorf("booking id: %w", ErrInvalidID)
	}

	candidateID := strings.TrimSpace(in.CandidateID)
	if candidateID == "" {
		return nil, ErrInvalidCandidateID
	}

	var result *CheckEligibilityResult
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		b, err := s.repo.FindByID(txCtx, bookingID)
		if err != nil {
			return err
		}

		c, err := s.candidates.FindByID(txCtx, candidateID)
		if err != nil {
			return err
		}

		result = &CheckEligibilityResult{
			Eligibility:        CheckEligibility(c, b, b.Assignments),
			RemainingPositions: b.RemainingPositions(),
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// AssignCandidate は候補者を予約にアサインします。可否判定と枠数確認、
// アサインの作成、充足状態の更新を 1 つの直列化トランザクションで行い、
// 同じ枠への同時アサインによる過充足を防ぎます。
func (s *Service) AssignCandidate(ctx context.Context, in AssignCandidateInput) (*Assignment, error) {
	bookingID := strings.TrimSpace(in.BookingID)
	if bookingID == "" {
		return nil, fmt.Errorf("booking id: %w", ErrInvalidID)
	}

	candidateID := strings.TrimSpace(in.CandidateID)
	if candidateID == "" {
		return nil, ErrInvalidCandidateID
	}

	var (
		created    *Assignment
		newBooking *BookingRequest
	)
	if err := s.tx.WithinSerializable(ctx, func(txCtx context.Context) error {
		b, err := s.repo.FindByID(txCtx, bookingID)
		if err != nil {
			return err
		}

		if b.Status == StatusCancelled {
			return ErrBookingCancelled
		}

		c, err := s.candidates.FindByID(txCtx, candidateID)
		if err != nil {
			return err
		}

		result := CheckEligibility(c, b, b.Assignments)
		if !result.CanAssign {
			return &EligibilityError{Reasons: result.Reasons}
		}

		if b.RemainingPositions() == 0 {
			return ErrBookingFull
		}

		now := s.clock.Now()
		assignment := &Assignment{
			BookingID:   b.ID,
			CandidateID: c.ID,
			Status:      AssignmentStatusConfirmed,
			Notes:       strings.TrimSpace(in.Notes),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		created, err = s.repo.CreateAssignment(txCtx, assignment)
		if err != nil {
			return err
		}

		b.Assignments = append(b.Assignments, created)
		b.Status = DeriveStatus(b.Status, b.CandidatesNeeded, b.Assignments)
		b.UpdatedAt = now

		newBooking, err = s.repo.Update(txCtx, b)
		return err
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "booking.candidate_assigned", "assignment", created.ID, nil, created, s.clock.Now()))
	if newBooking != nil && newBooking.Status == StatusFilled {
		s.auditor.Record(ctx, audit.NewEvent(in.Actor, "booking.filled", "booking_request", newBooking.ID, nil, newBooking, s.clock.Now()))
	}
	return created, nil
}

// UpdateAssignmentStatus はアサインの状態を更新し、予約の充足状態を再導出します。
// completed へ遷移するにはチェックイン・チェックアウト時刻が必要です。
func (s *Service) UpdateAssignmentStatus(ctx context.Context, in UpdateAssignmentStatusInput) (*Assignment, error) {
	if strings.TrimSpace(in.AssignmentID) == "" {
		return nil, fmt.Errorf("assignment id: %w", ErrInvalidID)
	}

	switch in.Status {
	case AssignmentStatusConfirmed, AssignmentStatusCancelled, AssignmentStatusCompleted, AssignmentStatusNoShow:
	default:
		return nil, ErrInvalidAssignmentStatus
	}

	var (
		before  *Assignment
		updated *Assignment
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindAssignment(txCtx, in.AssignmentID)
		if err != nil {
			return err
		}

		snapshot := *existing
		before = &snapshot

		if in.CheckInAt != nil {
			existing.CheckInAt = in.CheckInAt
		}
		if in.CheckOutAt != nil {
			existing.CheckOutAt = in.CheckOutAt
		}

		if in.Status == AssignmentStatusCompleted && (existing.CheckInAt == nil || existing.CheckOutAt == nil) {
			return ErrCheckTimesRequired
		}

		if in.Notes != nil {
			existing.Notes = strings.TrimSpace(*in.Notes)
		}

		now := s.clock.Now()
		existing.Status = in.Status
		existing.UpdatedAt = now

		updated, err = s.repo.UpdateAssignment(txCtx, existing)
		if err != nil {
			return err
		}

		b, err := s.repo.FindByID(txCtx, existing.BookingID)
		if err != nil {
			return err
		}

		derived := DeriveStatus(b.Status, b.CandidatesNeeded, b.Assignments)
		if derived != b.Status {
			b.Status = derived
			b.UpdatedAt = now
			if _, err := s.repo.Update(txCtx, b); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "booking.assignment_status_changed", "assignment", updated.ID, before, updated, s.clock.Now()))
	return updated, nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusOpen, StatusPartiallyFilled, StatusFilled, StatusCancelled:
		return true
	default:
		return false
	}
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
