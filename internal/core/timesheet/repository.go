package timesheet

import (
	"context"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
)

// Repository はタイムシートの永続化の抽象です。NextSequence は勤務日ごとの
// 連番を払い出します（同一トランザクション内で単調増加すること）。
type Repository interface {
	Create(ctx context.Context, t *Timesheet) (*Timesheet, error)
	Update(ctx context.Context, t *Timesheet) (*Timesheet, error)
	FindByID(ctx context.Context, id string) (*Timesheet, error)
	FindByAssignmentID(ctx context.Context, assignmentID string) (*Timesheet, error)
	List(ctx context.Context, filter ListTimesheetsFilter) ([]*Timesheet, string, error)
	NextSequence(ctx context.Context, workDate time.Time) (int, error)
}

// AssignmentDirectory はアサインと予約を参照する抽象です。
type AssignmentDirectory interface {
	FindAssignment(ctx context.Context, id string) (*booking.Assignment, error)
	FindByID(ctx context.Context, id string) (*booking.BookingRequest, error)
}

// ListTimesheetsFilter は一覧取得用フィルタです。
type ListTimesheetsFilter struct {
	CandidateID string
	Status      *Status
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
