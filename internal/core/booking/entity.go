package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
)

// Status は予約の充足状態を表します。
type Status string

const (
	StatusOpen            Status = "open"
	StatusPartiallyFilled Status = "partially_filled"
	StatusFilled          Status = "filled"
	StatusCancelled       Status = "cancelled"
)

// AssignmentStatus はアサインの状態を表します。
type AssignmentStatus string

const (
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusNoShow    AssignmentStatus = "no_show"
)

const shiftDateLayout = "2006-01-02"

// BookingRequest はクライアントからのシフト募集エンティティです。
// ClientRate と WorkerRate は作成時点のレート表から写し取ったスナップショットです。
type BookingRequest struct {
	ID                  string
	ClientID            string
	JobRoleID           string
	Location            string
	Description         string
	ShiftStart          time.Time
	ShiftEnd            time.Time
	CandidatesNeeded    int
	WorkType            ratecard.WorkType
	ClientRate          decimal.Decimal
	WorkerRate          decimal.Decimal
	Status              Status
	SpecialRequirements string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Assignments         []*Assignment
}

// ShiftDate はシフト開始日を YYYY-MM-DD で返します。
func (b *BookingRequest) ShiftDate() string {
	return b.ShiftStart.Format(shiftDateLayout)
}

// ShiftDurationHours はシフトの長さを時間単位で返します。
func (b *BookingRequest) ShiftDurationHours() decimal.Decimal {
	minutes := b.ShiftEnd.Sub(b.ShiftStart).Minutes()
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60)).Round(2)
}

// RemainingPositions は未充足の枠数を返します。
func (b *BookingRequest) RemainingPositions() int {
	return RemainingPositions(b.CandidatesNeeded, b.Assignments)
}

// IsFullyFilled は必要人数が確保できているかどうかを返します。
func (b *BookingRequest) IsFullyFilled() bool {
	return IsFullyFilled(b.CandidatesNeeded, b.Assignments)
}

// Assignment は予約と候補者を結ぶアサインです。
type Assignment struct {
	ID          string
	BookingID   string
	CandidateID string
	Status      AssignmentStatus
	Notes       string
	CheckInAt   *time.Time
	CheckOutAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HoursWorked はチェックイン・チェックアウト時刻から実働時間を返します。
// どちらかが未記録の場合は nil を返します。
func (a *Assignment) HoursWorked() *decimal.Decimal {
	if a.CheckInAt == nil || a.CheckOutAt == nil {
		return nil
	}
	minutes := a.CheckOutAt.Sub(*a.CheckInAt).Minutes()
	hours := decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60)).Round(2)
	return &hours
}
