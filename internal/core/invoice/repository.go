package invoice

import (
	"context"
	"time"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/client"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/timesheet"
)

// Repository は請求書の永続化の抽象です。NextSequence は発行日ごとの連番を
// 払い出します（同一トランザクション内で単調増加すること）。
type Repository interface {
	Create(ctx context.Context, i *Invoice) (*Invoice, error)
	Update(ctx context.Context, i *Invoice) (*Invoice, error)
	FindByID(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, filter ListInvoicesFilter) ([]*Invoice, string, error)
	NextSequence(ctx context.Context, issueDate time.Time) (int, error)
	TimesheetInvoiced(ctx context.Context, timesheetID string) (bool, error)
}

// BillingDirectory は請求対象のタイムシートとその予約・クライアントを
// 参照する抽象です。
type BillingDirectory interface {
	FindTimesheet(ctx context.Context, id string) (*timesheet.Timesheet, error)
	FindBooking(ctx context.Context, id string) (*booking.BookingRequest, error)
	FindClient(ctx context.Context, id string) (*client.Client, error)
}

// ListInvoicesFilter は一覧取得用フィルタです。From と To は発行日に適用されます。
type ListInvoicesFilter struct {
	ClientID string
	Status   *Status
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
