package timesheet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/audit"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。起票はシリアライザブル
// 分離で実行します。連番払い出しと INSERT を直列化しないと、同一勤務日の並行起票が
// 同じタイムシート番号を採番してしまうためです。
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

// Service はタイムシートに関するユースケースをまとめます。
type Service struct {
	repo        Repository
	assignments AssignmentDirectory
	clock       Clock
	tx          TransactionManager
	auditor     audit.Recorder
}

// UseCase はタイムシートユースケースの公開インターフェースです。
type UseCase interface {
	CreateTimesheet(ctx context.Context, in CreateTimesheetInput) (*Timesheet, error)
	SubmitTimesheet(ctx context.Context, in SubmitTimesheetInput) (*Timesheet, error)
	ApproveTimesheet(ctx context.Context, in ApproveTimesheetInput) (*Timesheet, error)
	RejectTimesheet(ctx context.Context, in RejectTimesheetInput) (*Timesheet, error)
	GetTimesheet(ctx context.Context, in GetTimesheetInput) (*Timesheet, error)
	ListTimesheets(ctx context.Context, in ListTimesheetsInput) (*ListTimesheetsResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, assignments AssignmentDirectory, clock Clock, tx TransactionManager, auditor audit.Recorder) *Service {
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
		repo:        repo,
		assignments: assignments,
		clock:       clock,
		tx:          tx,
		auditor:     auditor,
	}
}

// CreateTimesheetInput はタイムシート起票時の入力です。
type CreateTimesheetInput struct {
	AssignmentID string
	Notes        string
	Actor        string
}

// SubmitTimesheetInput はタイムシート提出時の入力です。
type SubmitTimesheetInput struct {
	ID    string
	Actor string
}

// ApproveTimesheetInput はタイムシート承認時の入力です。
type ApproveTimesheetInput struct {
	ID    string
	Actor string
}

// RejectTimesheetInput はタイムシート差し戻し時の入力です。
type RejectTimesheetInput struct {
	ID     string
	Reason string
	Actor  string
}

// GetTimesheetInput はタイムシート取得時の入力です。
type GetTimesheetInput struct {
	ID string
}

// ListTimesheetsInput は一覧取得時の入力です。
type ListTimesheetsInput struct {
	CandidateID string
	Status      *Status
	From        *time.Time
	To          *time.Time
	PageSize    int
	PageToken   string
}

// ListTimesheetsResult は一覧取得結果を表します。
type ListTimesheetsResult struct {
	Timesheets    []*Timesheet
	NextPageToken string
}

// CreateTimesheet は完了済みアサインからタイムシートを起票します。実働時間は
// チェックイン・チェックアウト時刻から、時給は予約のワーカーレートから算出します。
func (s *Service) CreateTimesheet(ctx context.Context, in CreateTimesheetInput) (*Timesheet, error) {
	assignmentID := strings.TrimSpace(in.AssignmentID)
	if assignmentID == "" {
		return nil, ErrInvalidAssignmentID
	}

	var created *Timesheet
	if err := s.tx.WithinSerializable(ctx, func(txCtx context.Context) error {
		a, err := s.assignments.FindAssignment(txCtx, assignmentID)
		if err != nil {
			if errors.Is(err, booking.ErrAssignmentNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}

		if a.Status != booking.AssignmentStatusCompleted {
			return ErrAssignmentNotCompleted
		}

		hours := a.HoursWorked()
		if hours == nil {
			return ErrAssignmentNotCompleted
		}

		if existing, err := s.repo.FindByAssignmentID(txCtx, assignmentID); err != nil {
			if !errors.Is(err, ErrTimesheetNotFound) {
				return err
			}
		} else if existing != nil {
			return ErrAlreadyExists
		}

		b, err := s.assignments.FindByID(txCtx, a.BookingID)
		if err != nil {
			return err
		}

		workDate := dateOnly(*a.CheckInAt)
		seq, err := s.repo.NextSequence(txCtx, workDate)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		t := &Timesheet{
			TimesheetNumber: FormatTimesheetNumber(workDate, seq),
			AssignmentID:    a.ID,
			BookingID:       b.ID,
			CandidateID:     a.CandidateID,
			WorkDate:        workDate,
			HoursWorked:     *hours,
			HourlyRate:      b.WorkerRate,
			TotalAmount:     hours.Mul(b.WorkerRate).Round(2),
			Status:          StatusDraft,
			Notes:           strings.TrimSpace(in.Notes),
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		created, err = s.repo.Create(txCtx, t)
		return err
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "timesheet.created", "timesheet", created.ID, nil, created, s.clock.Now()))
	return created, nil
}

// SubmitTimesheet は下書きのタイムシートを提出済みにします。
func (s *Service) SubmitTimesheet(ctx context.Context, in SubmitTimesheetInput) (*Timesheet, error) {
	return s.transition(ctx, in.ID, in.Actor, "timesheet.submitted", func(t *Timesheet, now time.Time) error {
		if t.Status != StatusDraft {
			return ErrNotSubmittable
		}
		t.Status = StatusSubmitted
		t.SubmittedAt = &now
		return nil
	})
}

// ApproveTimesheet は提出済みのタイムシートを承認します。
func (s *Service) ApproveTimesheet(ctx context.Context, in ApproveTimesheetInput) (*Timesheet, error) {
	actor := strings.TrimSpace(in.Actor)
	return s.transition(ctx, in.ID, actor, "timesheet.approved", func(t *Timesheet, now time.Time) error {
		if t.Status != StatusSubmitted {
			return ErrNotReviewable
		}
		t.Status = StatusApproved
		t.ReviewedAt = &now
		t.ReviewedBy = actor
		return nil
	})
}

// RejectTimesheet は提出済みのタイムシートを差し戻します。理由は必須です。
func (s *Service) RejectTimesheet(ctx context.Context, in RejectTimesheetInput) (*Timesheet, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, ErrRejectReasonRequired
	}

	actor := strings.TrimSpace(in.Actor)
	return s.transition(ctx, in.ID, actor, "timesheet.rejected", func(t *Timesheet, now time.Time) error {
		if t.Status != StatusSubmitted {
			return ErrNotReviewable
		}
		t.Status = StatusRejected
		t.ReviewedAt = &now
		t.ReviewedBy = actor
		t.RejectReason = reason
		return nil
	})
}

// GetTimesheet はタイムシートを取得します。
func (s *Service) GetTimesheet(ctx context.Context, in GetTimesheetInput) (*Timesheet, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Timesheet
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

// ListTimesheets はタイムシートの一覧を取得します。
func (s *Service) ListTimesheets(ctx context.Context, in ListTimesheetsInput) (*ListTimesheetsResult, error) {
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
		switch *in.Status {
		case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		default:
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	var (
		timesheets []*Timesheet
		nextToken  string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListTimesheetsFilter{
			CandidateID: strings.TrimSpace(in.CandidateID),
			Status:      statusPtr,
			From:        in.From,
			To:          in.To,
			Limit:       limit,
			Offset:      offset,
		})
		if err != nil {
			return err
		}
		timesheets = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListTimesheetsResult{Timesheets: timesheets, NextPageToken: nextToken}, nil
}

func (s *Service) transition(ctx context.Context, id, actor, action string, apply func(*Timesheet, time.Time) error) (*Timesheet, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before  *Timesheet
		updated *Timesheet
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		snapshot := *existing
		before = &snapshot

		now := s.clock.Now()
		if err := apply(existing, now); err != nil {
			return err
		}
		existing.UpdatedAt = now

		updated, err = s.repo.Update(txCtx, existing)
		return err
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(actor, action, "timesheet", updated.ID, before, updated, s.clock.Now()))
	return updated, nil
}

// dateOnly は暦上の日付を UTC の 0 時に正規化します。エポック基準の Truncate と
// 違い、タイムゾーン付きの時刻でも日付がずれません。
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
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
