package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"
)

// CandidateHandler は候補者リソースの HTTP ハンドラーです。
type CandidateHandler struct {
	uc     candidate.UseCase
	logger *zap.Logger
}

// NewCandidateHandler は CandidateHandler を生成します。
func NewCandidateHandler(uc candidate.UseCase, logger *zap.Logger) *CandidateHandler {
	return &CandidateHandler{uc: uc, logger: logger}
}

type candidateResponse struct {
	ID                   string   `json:"id"`
	JobRoleID            string   `json:"job_role_id"`
	FirstName            string   `json:"first_name"`
	LastName             string   `json:"last_name"`
	Email                string   `json:"email"`
	Phone                string   `json:"phone,omitempty"`
	City                 string   `json:"city,omitempty"`
	Postcode             string   `json:"postcode,omitempty"`
	Availability         []string `json:"availability"`
	Status               string   `json:"status"`
	Compliant            bool     `json:"compliant"`
	CompliancePercentage int      `json:"compliance_percentage"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

type complianceRecordResponse struct {
	ID           string  `json:"id"`
	CandidateID  string  `json:"candidate_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name,omitempty"`
	Required     bool    `json:"required"`
	Status       string  `json:"status"`
	ExpiryDate   *string `json:"expiry_date,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	VerifiedBy   string  `json:"verified_by,omitempty"`
	VerifiedAt   *string `json:"verified_at,omitempty"`
}

type complianceSummaryResponse struct {
	CandidateID string                     `json:"candidate_id"`
	Percentage  int                        `json:"percentage"`
	Compliant   bool                       `json:"compliant"`
	Records     []complianceRecordResponse `json:"records"`
}

type createCandidateRequest struct {
	JobRoleID    string   `json:"job_role_id" validate:"required"`
	FirstName    string   `json:"first_name" validate:"required"`
	LastName     string   `json:"last_name" validate:"required"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        string   `json:"phone"`
	City         string   `json:"city"`
	Postcode     string   `json:"postcode"`
	Availability []string `json:"availability"`
	Status       *string  `json:"status"`
}

type updateCandidateRequest struct {
	FirstName    *string  `json:"first_name"`
	LastName     *string  `json:"last_name"`
	Phone        *string  `json:"phone"`
	City         *string  `json:"city"`
	Postcode     *string  `json:"postcode"`
	Availability []string `json:"availability"`
	Status       *string  `json:"status"`
}

type reviewComplianceRequest struct {
	Status     string  `json:"status" validate:"required"`
	ExpiryDate *string `json:"expiry_date"`
	Notes      string  `json:"notes"`
}

func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCandidateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	var status *candidate.Status
	if req.Status != nil {
		s := candidate.Status(*req.Status)
		status = &s
	}

	c, err := h.uc.CreateCandidate(r.Context(), candidate.CreateCandidateInput{
		JobRoleID:    req.JobRoleID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		City:         req.City,
		Postcode:     req.Postcode,
		Availability: req.Availability,
		Status:       status,
		Actor:        actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCandidateResponse(c))
}

func (h *CandidateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCandidateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	var status *candidate.Status
	if req.Status != nil {
		s := candidate.Status(*req.Status)
		status = &s
	}

	c, err := h.uc.UpdateCandidate(r.Context(), candidate.UpdateCandidateInput{
		ID:              chi.URLParam(r, "id"),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		City:            req.City,
		Postcode:        req.Postcode,
		Availability:    req.Availability,
		AvailabilitySet: req.Availability != nil,
		Status:          status,
		Actor:           actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toCandidateResponse(c))
}

func (h *CandidateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteCandidate(r.Context(), candidate.DeleteCandidateInput{ID: chi.URLParam(r, "id")}); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.uc.GetCandidate(r.Context(), candidate.GetCandidateInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(c))
}

func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := parsePageSizeParam(q.Get("page_size"))
	if err != nil {
		badRequest(w, err)
		return
	}

	var status *candidate.Status
	if raw := q.Get("status"); raw != "" {
		s := candidate.Status(raw)
		status = &s
	}

	result, err := h.uc.ListCandidates(r.Context(), candidate.ListCandidatesInput{
		JobRoleID:   q.Get("job_role_id"),
		Status:      status,
		AvailableOn: q.Get("available_on"),
		PageSize:    pageSize,
		PageToken:   q.Get("page_token"),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	items := make([]candidateResponse, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		items = append(items, toCandidateResponse(c))
	}

	writeJSON(w, http.StatusOK, listResponse[candidateResponse]{Items: items, NextPageToken: result.NextPageToken})
}

func (h *CandidateHandler) ReviewCompliance(w http.ResponseWriter, r *http.Request) {
	var req reviewComplianceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	var expiry *time.Time
	if req.ExpiryDate != nil {
		t, err := parseDate(*req.ExpiryDate)
		if err != nil {
			badRequest(w, err)
			return
		}
		expiry = &t
	}

	record, err := h.uc.ReviewComplianceRecord(r.Context(), candidate.ReviewComplianceRecordInput{
		RecordID:   chi.URLParam(r, "recordID"),
		Status:     candidate.ComplianceStatus(req.Status),
		ExpiryDate: expiry,
		Notes:      req.Notes,
		Actor:      actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toComplianceRecordResponse(record))
}

func (h *CandidateHandler) ComplianceSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.uc.ComplianceSummary(r.Context(), candidate.ComplianceSummaryInput{CandidateID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	records := make([]complianceRecordResponse, 0, len(summary.Records))
	for _, record := range summary.Records {
		records = append(records, toComplianceRecordResponse(record))
	}

	writeJSON(w, http.StatusOK, complianceSummaryResponse{
		CandidateID: summary.CandidateID,
		Percentage:  summary.Percentage,
		Compliant:   summary.Compliant,
		Records:     records,
	})
}

func toCandidateResponse(c *candidate.Candidate) candidateResponse {
	availability := c.Availability
	if availability == nil {
		availability = []string{}
	}

	return candidateResponse{
		ID:                   c.ID,
		JobRoleID:            c.JobRoleID,
		FirstName:            c.FirstName,
		LastName:             c.LastName,
		Email:                c.Email,
		Phone:                c.Phone,
		City:                 c.City,
		Postcode:             c.Postcode,
		Availability:         availability,
		Status:               string(c.Status),
		Compliant:            c.IsCompliant(),
		CompliancePercentage: c.CompliancePercentage(),
		CreatedAt:            c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            c.UpdatedAt.Format(time.RFC3339),
	}
}

func toComplianceRecordResponse(record *candidate.ComplianceRecord) complianceRecordResponse {
	resp := complianceRecordResponse{
		ID:          record.ID,
		CandidateID: record.CandidateID,
		DocumentID:  record.DocumentID,
		Status:      string(record.Status),
		ExpiryDate:  formatOptionalDate(record.ExpiryDate),
		Notes:       record.Notes,
		VerifiedBy:  record.VerifiedBy,
		VerifiedAt:  formatOptionalInstant(record.VerifiedAt),
	}
	if record.Document != nil {
		resp.DocumentName = record.Document.Name
		resp.Required = record.Document.Required
	}
	return resp
}
