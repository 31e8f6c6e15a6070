package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/invoice"
)

// InvoiceHandler は請求書リソースの HTTP ハンドラーです。
type InvoiceHandler struct {
	uc     invoice.UseCase
	logger *zap.Logger
}

// NewInvoiceHandler は InvoiceHandler を生成します。
func NewInvoiceHandler(uc invoice.UseCase, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, logger: logger}
}

type invoiceLineItemResponse struct {
	ID          string `json:"id"`
	TimesheetID string `json:"timesheet_id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

type invoiceResponse struct {
	ID            string                    `json:"id"`
	InvoiceNumber string                    `json:"invoice_number"`
	ClientID      string                    `json:"client_id"`
	PeriodStart   string                    `json:"period_start"`
	PeriodEnd     string                    `json:"period_end"`
	IssueDate     string                    `json:"issue_date"`
	DueDate       string                    `json:"due_date"`
	Subtotal      string                    `json:"subtotal"`
	VATAmount     string                    `json:"vat_amount"`
	TotalAmount   string                    `json:"total_amount"`
	Status        string                    `json:"status"`
	Notes         string                    `json:"notes,omitempty"`
	CreatedBy     string                    `json:"created_by,omitempty"`
	LineItems     []invoiceLineItemResponse `json:"line_items,omitempty"`
	CreatedAt     string                    `json:"created_at"`
	UpdatedAt     string                    `json:"updated_at"`
}

type createInvoiceRequest struct {
	ClientID     string   `json:"client_id" validate:"required"`
	TimesheetIDs []string `json:"timesheet_ids" validate:"required,min=1"`
	PeriodStart  *string  `json:"period_start"`
	PeriodEnd    *string  `json:"period_end"`
	DueDate      *string  `json:"due_date"`
	Notes        string   `json:"notes"`
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	in := invoice.CreateInvoiceInput{
		ClientID:     req.ClientID,
		TimesheetIDs: req.TimesheetIDs,
		Notes:        req.Notes,
		Actor:        actorFrom(r),
	}

	if req.PeriodStart != nil {
		t, err := parseDate(*req.PeriodStart)
		if err != nil {
			badRequest(w, err)
			return
		}
		in.PeriodStart = &t
	}

	if req.PeriodEnd != nil {
		t, err := parseDate(*req.PeriodEnd)
		if err != nil {
			badRequest(w, err)
			return
		}
		in.PeriodEnd = &t
	}

	if req.DueDate != nil {
		t, err := parseDate(*req.DueDate)
		if err != nil {
			badRequest(w, err)
			return
		}
		in.DueDate = &t
	}

	i, err := h.uc.CreateInvoice(r.Context(), in)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInvoiceResponse(i))
}

func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	i, err := h.uc.SendInvoice(r.Context(), invoice.SendInvoiceInput{
		ID:    chi.URLParam(r, "id"),
		Actor: actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(i))
}

func (h *InvoiceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	i, err := h.uc.MarkInvoicePaid(r.Context(), invoice.MarkInvoicePaidInput{
		ID:    chi.URLParam(r, "id"),
		Actor: actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(i))
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	i, err := h.uc.CancelInvoice(r.Context(), invoice.CancelInvoiceInput{
		ID:    chi.URLParam(r, "id"),
		Actor: actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(i))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	i, err := h.uc.GetInvoice(r.Context(), invoice.GetInvoiceInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(i))
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := parsePageSizeParam(q.Get("page_size"))
	if err != nil {
		badRequest(w, err)
		return
	}

	var status *invoice.Status
	if raw := q.Get("status"); raw != "" {
		s := invoice.Status(raw)
		status = &s
	}

	from, err := parseOptionalDate(q.Get("from"))
	if err != nil {
		badRequest(w, err)
		return
	}

	to, err := parseOptionalDate(q.Get("to"))
	if err != nil {
		badRequest(w, err)
		return
	}

	result, err := h.uc.ListInvoices(r.Context(), invoice.ListInvoicesInput{
		ClientID:  q.Get("client_id"),
		Status:    status,
		From:      from,
		To:        to,
		PageSize:  pageSize,
		PageToken: q.Get("page_token"),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	items := make([]invoiceResponse, 0, len(result.Invoices))
	for _, i := range result.Invoices {
		items = append(items, toInvoiceResponse(i))
	}

	writeJSON(w, http.StatusOK, listResponse[invoiceResponse]{Items: items, NextPageToken: result.NextPageToken})
}

func toInvoiceResponse(i *invoice.Invoice) invoiceResponse {
	items := make([]invoiceLineItemResponse, 0, len(i.LineItems))
	for _, item := range i.LineItems {
		items = append(items, invoiceLineItemResponse{
			ID:          item.ID,
			TimesheetID: item.TimesheetID,
			Description: item.Description,
			Quantity:    item.Quantity.StringFixed(2),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Total:       item.Total.StringFixed(2),
		})
	}

	return invoiceResponse{
		ID:            i.ID,
		InvoiceNumber: i.InvoiceNumber,
		ClientID:      i.ClientID,
		PeriodStart:   formatDate(i.PeriodStart),
		PeriodEnd:     formatDate(i.PeriodEnd),
		IssueDate:     formatDate(i.IssueDate),
		DueDate:       formatDate(i.DueDate),
		Subtotal:      i.Subtotal.StringFixed(2),
		VATAmount:     i.VATAmount.StringFixed(2),
		TotalAmount:   i.TotalAmount.StringFixed(2),
		Status:        string(i.Status),
		Notes:         i.Notes,
		CreatedBy:     i.CreatedBy,
		LineItems:     items,
		CreatedAt:     i.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     i.UpdatedAt.Format(time.RFC3339),
	}
}
