package invoice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/audit"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/client"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/timesheet"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。請求書の作成は
// シリアライザブル分離で実行します。連番払い出しと明細の重複チェックを
// 直列化しないと、同一発行日の並行作成が同じ請求書番号を採番したり、
// 同じタイムシートを二重請求してしまうためです。
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

	defaultPaymentTermDays = 30
)

// Service は請求書に関するユースケースをまとめます。
type Service struct {
	repo      Repository
	directory BillingDirectory
	clock     Clock
	tx        TransactionManager
	auditor   audit.Recorder
}

// UseCase は請求書ユースケースの公開インターフェースです。
type UseCase interface {
	CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error)
	SendInvoice(ctx context.Context, in SendInvoiceInput) (*Invoice, error)
	MarkInvoicePaid(ctx context.Context, in MarkInvoicePaidInput) (*Invoice, error)
	CancelInvoice(ctx context.Context, in CancelInvoiceInput) (*Invoice, error)
	GetInvoice(ctx context.Context, in GetInvoiceInput) (*Invoice, error)
	ListInvoices(ctx context.Context, in ListInvoicesInput) (*ListInvoicesResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, directory BillingDirectory, clock Clock, tx TransactionManager, auditor audit.Recorder) *Service {
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
		repo:      repo,
		directory: directory,
		clock:     clock,
		tx:        tx,
		auditor:   auditor,
	}
}

// CreateInvoiceInput は請求書作成時の入力です。PeriodStart と PeriodEnd を
// 省略した場合は対象タイムシートの勤務日から算出します。DueDate を省略した
// 場合は発行日の 30 日後になります。
type CreateInvoiceInput struct {
	ClientID     string
	TimesheetIDs []string
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
	DueDate      *time.Time
	Notes        string
	Actor        string
}

// SendInvoiceInput は請求書送付時の入力です。
type SendInvoiceInput struct {
	ID    string
	Actor string
}

// MarkInvoicePaidInput は入金記録時の入力です。
type MarkInvoicePaidInput struct {
	ID    string
	Actor string
}

// CancelInvoiceInput は請求書取消時の入力です。
type CancelInvoiceInput struct {
	ID    string
	Actor string
}

// GetInvoiceInput は請求書取得時の入力です。
type GetInvoiceInput struct {
	ID string
}

// ListInvoicesInput は一覧取得時の入力です。
type ListInvoicesInput struct {
	ClientID  string
	Status    *Status
	From      *time.Time
	To        *time.Time
	PageSize  int
	PageToken string
}

// ListInvoicesResult は一覧取得結果を表します。
type ListInvoicesResult struct {
	Invoices      []*Invoice
	NextPageToken string
}

// CreateInvoice は承認済みタイムシートから請求書を作成します。明細の数量は
// 実働時間、単価は予約のクライアントレートです。小計に標準税率を加算して
// 請求額を確定します。
func (s *Service) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error) {
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		return nil, ErrInvalidClientID
	}

	timesheetIDs := make([]string, 0, len(in.TimesheetIDs))
	for _, raw := range in.TimesheetIDs {
		id := strings.TrimSpace(raw)
		if id != "" {
			timesheetIDs = append(timesheetIDs, id)
		}
	}
	if len(timesheetIDs) == 0 {
		return nil, ErrTimesheetIDsRequired
	}

	var created *Invoice
	if err := s.tx.WithinSerializable(ctx, func(txCtx context.Context) error {
		if _, err := s.directory.FindClient(txCtx, clientID); err != nil {
			if errors.Is(err, client.ErrClientNotFound) {
				return ErrClientNotFound
			}
			return err
		}

		items, periodStart, periodEnd, err := s.buildLineItems(txCtx, clientID, timesheetIDs)
		if err != nil {
			return err
		}

		if in.PeriodStart != nil {
			periodStart = dateOnly(*in.PeriodStart)
		}
		if in.PeriodEnd != nil {
			periodEnd = dateOnly(*in.PeriodEnd)
		}
		if periodEnd.Before(periodStart) {
			return ErrInvalidDateRange
		}

		now := s.clock.Now()
		issueDate := dateOnly(now)

		dueDate := issueDate.AddDate(0, 0, defaultPaymentTermDays)
		if in.DueDate != nil {
			dueDate = dateOnly(*in.DueDate)
		}
		if dueDate.Before(issueDate) {
			return ErrInvalidDateRange
		}

		seq, err := s.repo.NextSequence(txCtx, issueDate)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, item := range items {
			subtotal = subtotal.Add(item.Total)
		}
		subtotal = subtotal.Round(2)
		vat := subtotal.Mul(VATRate).Round(2)

		i := &Invoice{
			InvoiceNumber: FormatInvoiceNumber(issueDate, seq),
			ClientID:      clientID,
			PeriodStart:   periodStart,
			PeriodEnd:     periodEnd,
			IssueDate:     issueDate,
			DueDate:       dueDate,
			Subtotal:      subtotal,
			VATAmount:     vat,
			TotalAmount:   subtotal.Add(vat),
			Status:        StatusDraft,
			Notes:         strings.TrimSpace(in.Notes),
			CreatedBy:     strings.TrimSpace(in.Actor),
			CreatedAt:     now,
			UpdatedAt:     now,
			LineItems:     items,
		}

		created, err = s.repo.Create(txCtx, i)
		return err
	}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.NewEvent(in.Actor, "invoice.created", "invoice", created.ID, nil, created, s.clock.Now()))
	return created, nil
}

func (s *Service) buildLineItems(ctx context.Context, clientID string, timesheetIDs []string) ([]*LineItem, time.Time, time.Time, error) {
	var (
		items       []*LineItem
		periodStart time.Time
		periodEnd   time.Time
	)

	for _, id := range timesheetIDs {
		t, err := s.directory.FindTimesheet(ctx, id)
		if err != nil {
			if errors.Is(err, timesheet.ErrTimesheetNotFound) {
				return nil, time.Time{}, time.Time{}, fmt.Errorf("timesheet %s: %w", id, ErrTimesheetNotFound)
			}
			return nil, time.Time{}, time.Time{}, err
		}

		if t.Status != timesheet.StatusApproved {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("timesheet %s: %w", id, ErrTimesheetNotApproved)
		}

		invoiced, err := s.repo.TimesheetInvoiced(ctx, id)
		if err != nil {
			return nil, time.Time{}, time.Time{}, err
		}
		if invoiced {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("timesheet %s: %w", id, ErrTimesheetInvoiced)
		}

		b, err := s.directory.FindBooking(ctx, t.BookingID)
		if err != nil {
			return nil, time.Time{}, time.Time{}, err
		}
		if b.ClientID != clientID {
			return nil, time.Time{}, time.Time{}, fmt.Errorf("timesheet %s: %w", id, ErrTimesheetClientMismatch)
		}

		workDate := dateOnly(t.WorkDate)
		if periodStart.IsZero() || workDate.Before(periodStart) {
			periodStart = workDate
		}
		if periodEnd.IsZero() || workDate.After(periodEnd) {
			periodEnd = workDate
		}

		items = append(items, &LineItem{
			TimesheetID: t.ID,
			Description: fmt.Sprintf("%s %s (%s hours)", t.TimesheetNumber, workDate.Format("2006-01-02"), t.HoursWorked.StringFixed(2)),
			Quantity:    t.HoursWorked,
			UnitPrice:   b.ClientRate,
			Total:       t.HoursWorked.Mul(b.ClientRate).Round(2),
		})
	}

	return items, periodStart, periodEnd, nil
}

// SendInvoice は下書きの請求書を送付済みにします。明細の無い請求書は送付できません。
func (s *Service) SendInvoice(ctx context.Context, in SendInvoiceInput) (*Invoice, error) {
	return s.transition(ctx, in.ID, in.Actor, "invoice.sent", func(i *Invoice, _ time.Time) error {
		if i.Status != StatusDraft || len(i.LineItems) == 0 {
			return ErrNotSendable
		}
		i.Status = StatusSent
		return nil
	})
}

// MarkInvoicePaid は送付済みまたは期限超過の請求書を入金済みにします。
func (s *Service) MarkInvoicePaid(ctx context.Context, in MarkInvoicePaidInput) (*Invoice, error) {
	return s.transition(ctx, in.ID, in.Actor, "invoice.paid", func(i *Invoice, now time.Time) error {
		if i.IsOverdue(now) {
			i.Status = StatusOverdue
		}
		if i.Status != StatusSent && i.Status != StatusOverdue {
			return ErrNotPayable
		}
		i.Status = StatusPaid
		return nil
	})
}

// CancelInvoice は請求書を取り消します。入金済みと取消済みは対象外です。
func (s *Service) CancelInvoice(ctx context.Context, in CancelInvoiceInput) (*Invoice, error) {
	return s.transition(ctx, in.ID, in.Actor, "invoice.cancelled", func(i *Invoice, now time.Time) error {
		if i.Status == StatusPaid || i.Status == StatusCancelled {
			return ErrNotCancellable
		}
		i.Status = StatusCancelled
		return nil
	})
}

// GetInvoice は請求書を取得します。支払期日を過ぎた送付済みの請求書は
// 期限超過として返されます。
func (s *Service) GetInvoice(ctx context.Context, in GetInvoiceInput) (*Invoice, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Invoice
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

	if result.IsOverdue(s.clock.Now()) {
		result.Status = StatusOverdue
	}
	return result, nil
}

// ListInvoices は請求書の一覧を取得します。
func (s *Service) ListInvoices(ctx context.Context, in ListInvoicesInput) (*ListInvoicesResult, error) {
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
		case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		default:
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	var (
		invoices  []*Invoice
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListInvoicesFilter{
			ClientID: strings.TrimSpace(in.ClientID),
			Status:   statusPtr,
			From:     in.From,
			To:       in.To,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return err
		}
		invoices = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for _, i := range invoices {
		if i.IsOverdue(now) {
			i.Status = StatusOverdue
		}
	}

	return &ListInvoicesResult{Invoices: invoices, NextPageToken: nextToken}, nil
}

func (s *Service) transition(ctx context.Context, id, actor, action string, apply func(*Invoice, time.Time) error) (*Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		before  *Invoice
		updated *Invoice
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

	s.auditor.Record(ctx, audit.NewEvent(actor, action, "invoice", updated.ID, before, updated, s.clock.Now()))
	return updated, nil
}

// dateOnly は暦上の日付を UTC の 0 時に正規化します。
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
