package invoice

import "errors"

var (
	ErrInvalidID               = errors.New("invoice: invalid id")
	ErrInvalidClientID         = errors.New("invoice: invalid client id")
	ErrInvalidStatus           = errors.New("invoice: invalid status")
	ErrInvalidDateRange        = errors.New("invoice: period end must not precede period start")
	ErrInvalidPageSize         = errors.New("invoice: invalid page size")
	ErrInvalidPageToken        = errors.New("invoice: invalid page token")
	ErrTimesheetIDsRequired    = errors.New("invoice: at least one timesheet id is required")
	ErrInvoiceNotFound         = errors.New("invoice: not found")
	ErrClientNotFound          = errors.New("invoice: client not found")
	ErrTimesheetNotFound       = errors.New("invoice: timesheet not found")
	ErrTimesheetNotApproved    = errors.New("invoice: timesheet is not approved")
	ErrTimesheetInvoiced       = errors.New("invoice: timesheet is already invoiced")
	ErrTimesheetClientMismatch = errors.New("invoice: timesheet belongs to a different client")
	ErrNotSendable             = errors.New("invoice: only draft invoices with line items can be sent")
	ErrNotPayable              = errors.New("invoice: only sent or overdue invoices can be paid")
	ErrNotCancellable          = errors.New("invoice: paid or cancelled invoices cannot be cancelled")
)
