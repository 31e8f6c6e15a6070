package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
)

// BookingHandler は予約リソースの HTTP ハンドラーです。
type BookingHandler struct {
	uc     booking.UseCase
	logger *zap.Logger
}

// NewBookingHandler は BookingHandler を生成します。
func NewBookingHandler(uc booking.UseCase, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{uc: uc, logger: logger}
}

type bookingResponse struct {
	ID                  string               `json:"id"`
	ClientID            string               `json:"client_id"`
	JobRoleID           string               `json:"job_role_id"`
	Location            string               `json:"location,omitempty"`
	Description         string               `json:"description,omitempty"`
	ShiftStart          string               `json:"shift_start"`
	ShiftEnd            string               `json:"shift_end"`
	CandidatesNeeded    int                  `json:"candidates_needed"`
	WorkType            string               `json:"work_type"`
	ClientRate          string               `json:"client_rate"`
	WorkerRate          string               `json:"worker_rate"`
	Status              string               `json:"status"`
	RemainingPositions  int                  `json:"remaining_positions"`
	SpecialRequirements string               `json:"special_requirements,omitempty"`
	Assignments         []assignmentResponse `json:"assignments"`
	CreatedAt           string               `json:"created_at"`
	UpdatedAt           string               `json:"updated_at"`
}

type assignmentResponse struct {
	ID          string  `json:"id"`
	BookingID   string  `json:"booking_id"`
	CandidateID string  `json:"candidate_id"`
	Status      string  `json:"status"`
	Notes       string  `json:"notes,omitempty"`
	CheckInAt   *string `json:"check_in_at,omitempty"`
	CheckOutAt  *string `json:"check_out_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type eligibilityResponse struct {
	CanAssign          bool     `json:"can_assign"`
	Reasons            []string `json:"reasons"`
	RemainingPositions int      `json:"remaining_positions"`
}

type createBookingRequest struct {
	ClientID            string `json:"client_id" validate:"required"`
	JobRoleID           string `json:"job_role_id" validate:"required"`
	Location            string `json:"location"`
	Description         string `json:"description"`
	ShiftStart          string `json:"shift_start" validate:"required"`
	ShiftEnd            string `json:"shift_end" validate:"required"`
	CandidatesNeeded    int    `json:"candidates_needed" validate:"required,min=1"`
	SpecialRequirements string `json:"special_requirements"`
}

type updateBookingRequest struct {
	Location            *string `json:"location"`
	Description         *string `json:"description"`
	CandidatesNeeded    *int    `json:"candidates_needed"`
	SpecialRequirements *string `json:"special_requirements"`
}

type assignCandidateRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	Notes       string `json:"notes"`
}

type updateAssignmentStatusRequest struct {
	Status     string  `json:"status" validate:"required"`
	CheckInAt  *string `json:"check_in_at"`
	CheckOutAt *string `json:"check_out_at"`
	Notes      *string `json:"notes"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	shiftStart, err := time.Parse(time.RFC3339, req.ShiftStart)
	if err != nil {
		badRequest(w, err)
		return
	}

	shiftEnd, err := time.Parse(time.RFC3339, req.ShiftEnd)
	if err != nil {
		badRequest(w, err)
		return
	}

	b, err := h.uc.CreateBooking(r.Context(), booking.CreateBookingInput{
		ClientID:            req.ClientID,
		JobRoleID:           req.JobRoleID,
		Location:            req.Location,
		Description:         req.Description,
		ShiftStart:          shiftStart,
		ShiftEnd:            shiftEnd,
		CandidatesNeeded:    req.CandidatesNeeded,
		SpecialRequirements: req.SpecialRequirements,
		Actor:               actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	b, err := h.uc.UpdateBooking(r.Context(), booking.UpdateBookingInput{
		ID:                  chi.URLParam(r, "id"),
		Location:            req.Location,
		Description:         req.Description,
		CandidatesNeeded:    req.CandidatesNeeded,
		SpecialRequirements: req.SpecialRequirements,
		Actor:               actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	b, err := h.uc.CancelBooking(r.Context(), booking.CancelBookingInput{
		ID:    chi.URLParam(r, "id"),
		Actor: actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.uc.GetBooking(r.Context(), booking.GetBookingInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := parsePageSizeParam(q.Get("page_size"))
	if err != nil {
		badRequest(w, err)
		return
	}

	var status *booking.Status
	if raw := q.Get("status"); raw != "" {
		s := booking.Status(raw)
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

	result, err := h.uc.ListBookings(r.Context(), booking.ListBookingsInput{
		ClientID:  q.Get("client_id"),
		JobRoleID: q.Get("job_role_id"),
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

	items := make([]bookingResponse, 0, len(result.Bookings))
	for _, b := range result.Bookings {
		items = append(items, toBookingResponse(b))
	}

	writeJSON(w, http.StatusOK, listResponse[bookingResponse]{Items: items, NextPageToken: result.NextPageToken})
}

func (h *BookingHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	result, err := h.uc.CheckCandidateEligibility(r.Context(), booking.CheckEligibilityInput{
		BookingID:   chi.URLParam(r, "id"),
		CandidateID: chi.URLParam(r, "candidateID"),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	reasons := result.Eligibility.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	writeJSON(w, http.StatusOK, eligibilityResponse{
		CanAssign:          result.Eligibility.CanAssign,
		Reasons:            reasons,
		RemainingPositions: result.RemainingPositions,
	})
}

func (h *BookingHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignCandidateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	a, err := h.uc.AssignCandidate(r.Context(), booking.AssignCandidateInput{
		BookingID:   chi.URLParam(r, "id"),
		CandidateID: req.CandidateID,
		Notes:       req.Notes,
		Actor:       actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

func (h *BookingHandler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	var req updateAssignmentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	checkIn, err := parseOptionalInstant(valueOrEmpty(req.CheckInAt))
	if err != nil {
		badRequest(w, err)
		return
	}

	checkOut, err := parseOptionalInstant(valueOrEmpty(req.CheckOutAt))
	if err != nil {
		badRequest(w, err)
		return
	}

	a, err := h.uc.UpdateAssignmentStatus(r.Context(), booking.UpdateAssignmentStatusInput{
		AssignmentID: chi.URLParam(r, "id"),
		Status:       booking.AssignmentStatus(req.Status),
		CheckInAt:    checkIn,
		CheckOutAt:   checkOut,
		Notes:        req.Notes,
		Actor:        actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssignmentResponse(a))
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toBookingResponse(b *booking.BookingRequest) bookingResponse {
	assignments := make([]assignmentResponse, 0, len(b.Assignments))
	for _, a := range b.Assignments {
		if a == nil {
			continue
		}
		assignments = append(assignments, toAssignmentResponse(a))
	}

	return bookingResponse{
		ID:                  b.ID,
		ClientID:            b.ClientID,
		JobRoleID:           b.JobRoleID,
		Location:            b.Location,
		Description:         b.Description,
		ShiftStart:          b.ShiftStart.Format(time.RFC3339),
		ShiftEnd:            b.ShiftEnd.Format(time.RFC3339),
		CandidatesNeeded:    b.CandidatesNeeded,
		WorkType:            string(b.WorkType),
		ClientRate:          b.ClientRate.StringFixed(2),
		WorkerRate:          b.WorkerRate.StringFixed(2),
		Status:              string(b.Status),
		RemainingPositions:  b.RemainingPositions(),
		SpecialRequirements: b.SpecialRequirements,
		Assignments:         assignments,
		CreatedAt:           b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           b.UpdatedAt.Format(time.RFC3339),
	}
}

func toAssignmentResponse(a *booking.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:          a.ID,
		BookingID:   a.BookingID,
		CandidateID: a.CandidateID,
		Status:      string(a.Status),
		Notes:       a.Notes,
		CheckInAt:   formatOptionalInstant(a.CheckInAt),
		CheckOutAt:  formatOptionalInstant(a.CheckOutAt),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}
