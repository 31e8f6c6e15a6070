package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status は請求書の状態を表します。
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// VATRate は標準税率です。
var VATRate = decimal.NewFromFloat(0.20)

// Invoice は承認済みタイムシートを束ねてクライアントへ請求するエンティティです。
// 金額の内訳は作成時に確定し、以後の明細変更はありません。
type Invoice struct {
	ID            string
	InvoiceNumber string
	ClientID      string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	IssueDate     time.Time
	DueDate       time.Time
	Subtotal      decimal.Decimal
	VATAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	Status        Status
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LineItems     []*LineItem
}

// LineItem は請求書の明細行です。数量はタイムシートの実働時間、単価は
// 予約時点のクライアントレートのスナップショットです。
type LineItem struct {
	ID          string
	InvoiceID   string
	TimesheetID string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// FormatInvoiceNumber は発行日と同日内の連番から請求書番号を組み立てます。
func FormatInvoiceNumber(issueDate time.Time, seq int) string {
	return fmt.Sprintf("INV%s%04d", issueDate.Format("20060102"), seq)
}

// IsOverdue は送付済みのまま支払期日を過ぎているかどうかを返します。
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == StatusSent && now.After(i.DueDate)
}
