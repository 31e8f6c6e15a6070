package timesheet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status はタイムシートの状態を表します。
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Timesheet は完了したアサインから起票される勤務実績です。
// HourlyRate はアサイン元の予約のワーカーレートを写し取ったスナップショットです。
type Timesheet struct {
	ID              string
	TimesheetNumber string
	AssignmentID    string
	BookingID       string
	CandidateID     string
	WorkDate        time.Time
	HoursWorked     decimal.Decimal
	HourlyRate      decimal.Decimal
	TotalAmount     decimal.Decimal
	Status          Status
	Notes           string
	SubmittedAt     *time.Time
	ReviewedAt      *time.Time
	ReviewedBy      string
	RejectReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FormatTimesheetNumber は勤務日と同日内の連番からタイムシート番号を組み立てます。
func FormatTimesheetNumber(workDate time.Time, seq int) string {
	return fmt.Sprintf("TS%s%03d", workDate.Format("20060102"), seq)
}
