package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/invoice"
	pgdb "github.com/ogurasousui/staffing-clean-arch/internal/platform/db/postgres"
)

// InvoiceRepository は PostgreSQL を利用した請求書永続化の実装です。
type InvoiceRepository struct {
	pool pgdb.Queryer
}

// NewInvoiceRepository は InvoiceRepository を生成します。
func NewInvoiceRepository(pool pgdb.Queryer) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

const invoiceColumns = `id, invoice_number, client_id, period_start, period_end, issue_date, due_date,
               subtotal::text, vat_amount::text, total_amount::text, status, notes, created_by,
               created_at, updated_at`

const invoiceLineItemColumns = `id, invoice_id, timesheet_id, description, quantity::text, unit_price::text, total::text`

// Create は請求書と明細を新規作成します。
func (r *InvoiceRepository) Create(ctx context.Context, i *invoice.Invoice) (*invoice.Invoice, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO invoices (
            invoice_number, client_id, period_start, period_end, issue_date, due_date,
            subtotal, vat_amount, total_amount, status, notes, created_by,
            created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING `+invoiceColumns+`
    `,
		i.InvoiceNumber,
		i.ClientID,
		i.PeriodStart,
		i.PeriodEnd,
		i.IssueDate,
		i.DueDate,
		i.Subtotal.StringFixed(2),
		i.VATAmount.StringFixed(2),
		i.TotalAmount.StringFixed(2),
		string(i.Status),
		i.Notes,
		i.CreatedBy,
		i.CreatedAt,
		i.UpdatedAt,
	)

	created, err := scanInvoice(row)
	if err != nil {
		return nil, translateInvoicePgError(err)
	}

	for _, item := range i.LineItems {
		itemRow := exec.QueryRow(ctx, `
            INSERT INTO invoice_line_items (invoice_id, timesheet_id, description, quantity, unit_price, total)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING `+invoiceLineItemColumns+`
        `,
			created.ID,
			item.TimesheetID,
			item.Description,
			item.Quantity.StringFixed(2),
			item.UnitPrice.StringFixed(2),
			item.Total.StringFixed(2),
		)

		createdItem, err := scanInvoiceLineItem(itemRow)
		if err != nil {
			return nil, translateInvoicePgError(err)
		}
		created.LineItems = append(created.LineItems, createdItem)
	}

	return created, nil
}

// Update は請求書の状態と備考を更新します。明細は作成後に変更されません。
func (r *InvoiceRepository) Update(ctx context.Context, i *invoice.Invoice) (*invoice.Invoice, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE invoices
           SET status = $1,
               notes = $2,
               due_date = $3,
               updated_at = $4
         WHERE id = $5
        RETURNING `+invoiceColumns+`
    `,
		string(i.Status),
		i.Notes,
		i.DueDate,
		i.UpdatedAt,
		i.ID,
	)

	updated, err := scanInvoice(row)
	if err != nil {
		return nil, translateInvoicePgError(err)
	}

	items, err := r.listLineItems(ctx, updated.ID)
	if err != nil {
		return nil, translateInvoicePgError(err)
	}
	updated.LineItems = items

	return updated, nil
}

// FindByID は ID で請求書を明細込みで取得します。
func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*invoice.Invoice, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+invoiceColumns+`
          FROM invoices
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanInvoice(row)
	if err != nil {
		return nil, translateInvoicePgError(err)
	}

	items, err := r.listLineItems(ctx, found.ID)
	if err != nil {
		return nil, translateInvoicePgError(err)
	}
	found.LineItems = items

	return found, nil
}

// List は請求書の一覧を取得します。一覧は明細を含みません。
func (r *InvoiceRepository) List(ctx context.Context, filter invoice.ListInvoicesFilter) ([]*invoice.Invoice, string, error) {
	if filter.Limit <= 0 {
		return nil, "", invoice.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", invoice.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 6)
	conditions := make([]string, 0, 4)

	if filter.ClientID != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "client_id = "+placeholder)
		args = append(args, filter.ClientID)
	}

	if filter.Status != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "status = "+placeholder)
		args = append(args, string(*filter.Status))
	}

	if filter.From != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "issue_date >= "+placeholder)
		args = append(args, *filter.From)
	}

	if filter.To != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "issue_date <= "+placeholder)
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
        SELECT ` + invoiceColumns + `
          FROM invoices` + whereClause + `
         ORDER BY issue_date DESC, invoice_number DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateInvoicePgError(err)
	}
	defer rows.Close()

	invoices := make([]*invoice.Invoice, 0, filter.Limit)
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, "", translateInvoicePgError(err)
		}
		invoices = append(invoices, i)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateInvoicePgError(err)
	}

	var nextToken string
	if len(invoices) == limitWithBuffer {
		invoices = invoices[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return invoices, nextToken, nil
}

// NextSequence は発行日内の次の連番を払い出します。
func (r *InvoiceRepository) NextSequence(ctx context.Context, issueDate time.Time) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT COUNT(*) + 1
          FROM invoices
         WHERE issue_date = $1
    `, issueDate)

	var seq int
	if err := row.Scan(&seq); err != nil {
		return 0, translateInvoicePgError(err)
	}
	return seq, nil
}

// TimesheetInvoiced はタイムシートが既にいずれかの請求書に載っているかを返します。
func (r *InvoiceRepository) TimesheetInvoiced(ctx context.Context, timesheetID string) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
              FROM invoice_line_items li
              JOIN invoices i ON i.id = li.invoice_id
             WHERE li.timesheet_id = $1
               AND i.status <> 'cancelled'
        )
    `, timesheetID)

	var invoiced bool
	if err := row.Scan(&invoiced); err != nil {
		return false, translateInvoicePgError(err)
	}
	return invoiced, nil
}

func (r *InvoiceRepository) listLineItems(ctx context.Context, invoiceID string) ([]*invoice.LineItem, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+invoiceLineItemColumns+`
          FROM invoice_line_items
         WHERE invoice_id = $1
         ORDER BY id
    `, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*invoice.LineItem
	for rows.Next() {
		item, err := scanInvoiceLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanInvoice(row pgx.Row) (*invoice.Invoice, error) {
	var (
		id            string
		invoiceNumber string
		clientID      string
		periodStart   time.Time
		periodEnd     time.Time
		issueDate     time.Time
		dueDate       time.Time
		subtotal      string
		vatAmount     string
		totalAmount   string
		status        string
		notes         string
		createdBy     string
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&id,
		&invoiceNumber,
		&clientID,
		&periodStart,
		&periodEnd,
		&issueDate,
		&dueDate,
		&subtotal,
		&vatAmount,
		&totalAmount,
		&status,
		&notes,
		&createdBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, err
	}

	sub, err := decimal.NewFromString(subtotal)
	if err != nil {
		return nil, err
	}

	vat, err := decimal.NewFromString(vatAmount)
	if err != nil {
		return nil, err
	}

	total, err := decimal.NewFromString(totalAmount)
	if err != nil {
		return nil, err
	}

	return &invoice.Invoice{
		ID:            id,
		InvoiceNumber: invoiceNumber,
		ClientID:      clientID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Subtotal:      sub,
		VATAmount:     vat,
		TotalAmount:   total,
		Status:        invoice.Status(status),
		Notes:         notes,
		CreatedBy:     createdBy,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func scanInvoiceLineItem(row pgx.Row) (*invoice.LineItem, error) {
	var (
		id          string
		invoiceID   string
		timesheetID string
		description string
		quantity    string
		unitPrice   string
		total       string
	)

	if err := row.Scan(
		&id,
		&invoiceID,
		&timesheetID,
		&description,
		&quantity,
		&unitPrice,
		&total,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, err
	}

	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return nil, err
	}

	unit, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return nil, err
	}

	lineTotal, err := decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}

	return &invoice.LineItem{
		ID:          id,
		InvoiceID:   invoiceID,
		TimesheetID: timesheetID,
		Description: description,
		Quantity:    qty,
		UnitPrice:   unit,
		Total:       lineTotal,
	}, nil
}

func translateInvoicePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "invoices_client_id_fkey":
				return invoice.ErrClientNotFound
			case "invoice_line_items_timesheet_id_fkey":
				return invoice.ErrTimesheetNotFound
			}
			return err
		}
	}
	return err
}
