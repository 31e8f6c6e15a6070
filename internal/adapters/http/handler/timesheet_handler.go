package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/timesheet"
)

// TimesheetHandler はタイムシートリソースの HTTP ハンドラーです。
type TimesheetHandler struct {
	uc     timesheet.UseCase
	logger *zap.Logger
}

// NewTimesheetHandler は TimesheetHandler を生成します。
func NewTimesheetHandler(uc timesheet.UseCase, logger *zap.Logger) *TimesheetHandler {
	return &TimesheetHandler{uc: uc, logger: logger}
}

type timesheetResponse struct {
	ID              string  `json:"id"`
	TimesheetNumber string  `json:"timesheet_number"`
	AssignmentID    string  `json:"assignment_id"`
	BookingID       string  `json:"booking_id"`
	CandidateID     string  `json:"candidate_id"`
	WorkDate        string  `json:"work_date"`
	HoursWorked     string  `json:"hours_worked"`
	HourlyRate      string  `json:"hourly_rate"`
	TotalAmount     string  `json:"total_amount"`
	Status          string  `json:"status"`
	Notes           string  `json:"notes,omitempty"`
	SubmittedAt     *string `json:"submitted_at,omitempty"`
	ReviewedAt      *string `json:"reviewed_at,omitempty"`
	ReviewedBy      string  `json:"reviewed_by,omitempty"`
	RejectReason    string  `json:"reject_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type createTimesheetRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Notes        string `json:"notes"`
}

type rejectTimesheetRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *TimesheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTimesheetRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	t, err := h.uc.CreateTimesheet(r.Context(), timesheet.CreateTimesheetInput{
		AssignmentID: req.AssignmentID,
		Notes:        req.Notes,
		Actor:        actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTimesheetResponse(t))
}

func (h *TimesheetHandler) Submit(w http.ResponseWriter, r *http.Request) {
	t, err := h.uc.SubmitTimesheet(r.Context(), timesheet.SubmitTimesheetInput{
		ID:    chi.URLParam(r, "id"),
		Actor: actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetResponse(t))
}

func (h *TimesheetHandler) Approve(w http.ResponseWriter, r *http.Request) {
	t, err := h.uc.ApproveTimesheet(r.Context(), timesheet.ApproveTimesheetInput{
		ID:    chi.URLParam(r, "id"),
		Actor: actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetResponse(t))
}

func (h *TimesheetHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectTimesheetRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	t, err := h.uc.RejectTimesheet(r.Context(), timesheet.RejectTimesheetInput{
		ID:     chi.URLParam(r, "id"),
		Reason: req.Reason,
		Actor:  actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetResponse(t))
}

func (h *TimesheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.uc.GetTimesheet(r.Context(), timesheet.GetTimesheetInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetResponse(t))
}

func (h *TimesheetHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := parsePageSizeParam(q.Get("page_size"))
	if err != nil {
		badRequest(w, err)
		return
	}

	var status *timesheet.Status
	if raw := q.Get("status"); raw != "" {
		s := timesheet.Status(raw)
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

	result, err := h.uc.ListTimesheets(r.Context(), timesheet.ListTimesheetsInput{
		CandidateID: q.Get("candidate_id"),
		Status:      status,
		From:        from,
		To:          to,
		PageSize:    pageSize,
		PageToken:   q.Get("page_token"),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	items := make([]timesheetResponse, 0, len(result.Timesheets))
	for _, t := range result.Timesheets {
		items = append(items, toTimesheetResponse(t))
	}

	writeJSON(w, http.StatusOK, listResponse[timesheetResponse]{Items: items, NextPageToken: result.NextPageToken})
}

func toTimesheetResponse(t *timesheet.Timesheet) timesheetResponse {
	return timesheetResponse{
		ID:              t.ID,
		TimesheetNumber: t.TimesheetNumber,
		AssignmentID:    t.AssignmentID,
		BookingID:       t.BookingID,
		CandidateID:     t.CandidateID,
		WorkDate:        formatDate(t.WorkDate),
		HoursWorked:     t.HoursWorked.StringFixed(2),
		HourlyRate:      t.HourlyRate.StringFixed(2),
		TotalAmount:     t.TotalAmount.StringFixed(2),
		Status:          string(t.Status),
		Notes:           t.Notes,
		SubmittedAt:     formatOptionalInstant(t.SubmittedAt),
		ReviewedAt:      formatOptionalInstant(t.ReviewedAt),
		ReviewedBy:      t.ReviewedBy,
		RejectReason:    t.RejectReason,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
	}
}
