package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/jobrole"
)

// JobRoleHandler は職種リソースの HTTP ハンドラーです。
type JobRoleHandler struct {
	uc     jobrole.UseCase
	logger *zap.Logger
}

// NewJobRoleHandler は JobRoleHandler を生成します。
func NewJobRoleHandler(uc jobrole.UseCase, logger *zap.Logger) *JobRoleHandler {
	return &JobRoleHandler{uc: uc, logger: logger}
}

type jobRoleResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type complianceDocumentResponse struct {
	ID             string `json:"id"`
	JobRoleID      string `json:"job_role_id"`
	Name           string `json:"name"`
	Required       bool   `json:"required"`
	RequiresExpiry bool   `json:"requires_expiry"`
	CreatedAt      string `json:"created_at"`
}

type createJobRoleRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

type updateJobRoleRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

type addComplianceDocumentRequest struct {
	Name           string `json:"name" validate:"required"`
	Required       *bool  `json:"required"`
	RequiresExpiry bool   `json:"requires_expiry"`
}

func (h *JobRoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createJobRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	role, err := h.uc.CreateJobRole(r.Context(), jobrole.CreateJobRoleInput{
		Title:       req.Title,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toJobRoleResponse(role))
}

func (h *JobRoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateJobRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	role, err := h.uc.UpdateJobRole(r.Context(), jobrole.UpdateJobRoleInput{
		ID:          chi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobRoleResponse(role))
}

func (h *JobRoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteJobRole(r.Context(), jobrole.DeleteJobRoleInput{ID: chi.URLParam(r, "id")}); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobRoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.uc.GetJobRole(r.Context(), jobrole.GetJobRoleInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobRoleResponse(role))
}

func (h *JobRoleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := parsePageSizeParam(q.Get("page_size"))
	if err != nil {
		badRequest(w, err)
		return
	}

	result, err := h.uc.ListJobRoles(r.Context(), jobrole.ListJobRolesInput{
		ActiveOnly: q.Get("active") == "true",
		PageSize:   pageSize,
		PageToken:  q.Get("page_token"),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	items := make([]jobRoleResponse, 0, len(result.JobRoles))
	for _, role := range result.JobRoles {
		items = append(items, toJobRoleResponse(role))
	}

	writeJSON(w, http.StatusOK, listResponse[jobRoleResponse]{Items: items, NextPageToken: result.NextPageToken})
}

func (h *JobRoleHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req addComplianceDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	doc, err := h.uc.AddComplianceDocument(r.Context(), jobrole.AddComplianceDocumentInput{
		JobRoleID:      chi.URLParam(r, "id"),
		Name:           req.Name,
		Required:       req.Required,
		RequiresExpiry: req.RequiresExpiry,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toComplianceDocumentResponse(doc))
}

func (h *JobRoleHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.RemoveComplianceDocument(r.Context(), jobrole.RemoveComplianceDocumentInput{ID: chi.URLParam(r, "documentID")}); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobRoleHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.uc.ListComplianceDocuments(r.Context(), jobrole.ListComplianceDocumentsInput{JobRoleID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	items := make([]complianceDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toComplianceDocumentResponse(doc))
	}

	writeJSON(w, http.StatusOK, listResponse[complianceDocumentResponse]{Items: items})
}

func toJobRoleResponse(role *jobrole.JobRole) jobRoleResponse {
	return jobRoleResponse{
		ID:          role.ID,
		Title:       role.Title,
		Description: role.Description,
		Active:      role.Active,
		CreatedAt:   role.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   role.UpdatedAt.Format(time.RFC3339),
	}
}

func toComplianceDocumentResponse(doc *jobrole.ComplianceDocument) complianceDocumentResponse {
	return complianceDocumentResponse{
		ID:             doc.ID,
		JobRoleID:      doc.JobRoleID,
		Name:           doc.Name,
		Required:       doc.Required,
		RequiresExpiry: doc.RequiresExpiry,
		CreatedAt:      doc.CreatedAt.Format(time.RFC3339),
	}
}
