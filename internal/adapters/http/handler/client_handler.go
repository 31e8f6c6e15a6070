package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/client"
)

// ClientHandler はクライアントリソースの HTTP ハンドラーです。
type ClientHandler struct {
	uc     client.UseCase
	logger *zap.Logger
}

// NewClientHandler は ClientHandler を生成します。
func NewClientHandler(uc client.UseCase, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{uc: uc, logger: logger}
}

type clientResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ContactPerson  string `json:"contact_person,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	City           string `json:"city,omitempty"`
	Postcode       string `json:"postcode,omitempty"`
	FinanceContact string `json:"finance_contact,omitempty"`
	Active         bool   `json:"active"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type createClientRequest struct {
	Name           string `json:"name" validate:"required"`
	ContactPerson  string `json:"contact_person"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone"`
	City           string `json:"city"`
	Postcode       string `json:"postcode"`
	FinanceContact string `json:"finance_contact"`
	Active         *bool  `json:"active"`
}

type updateClientRequest struct {
	Name           *string `json:"name"`
	ContactPerson  *string `json:"contact_person"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Phone          *string `json:"phone"`
	City           *string `json:"city"`
	Postcode       *string `json:"postcode"`
	FinanceContact *string `json:"finance_contact"`
	Active         *bool   `json:"active"`
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	c, err := h.uc.CreateClient(r.Context(), client.CreateClientInput{
		Name:           req.Name,
		ContactPerson:  req.ContactPerson,
		Email:          req.Email,
		Phone:          req.Phone,
		City:           req.City,
		Postcode:       req.Postcode,
		FinanceContact: req.FinanceContact,
		Active:         req.Active,
		Actor:          actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toClientResponse(c))
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	c, err := h.uc.UpdateClient(r.Context(), client.UpdateClientInput{
		ID:             chi.URLParam(r, "id"),
		Name:           req.Name,
		ContactPerson:  req.ContactPerson,
		Email:          req.Email,
		Phone:          req.Phone,
		City:           req.City,
		Postcode:       req.Postcode,
		FinanceContact: req.FinanceContact,
		Active:         req.Active,
		Actor:          actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(c))
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteClient(r.Context(), client.DeleteClientInput{ID: chi.URLParam(r, "id"), Actor: actorFrom(r)}); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.uc.GetClient(r.Context(), client.GetClientInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(c))
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := parsePageSizeParam(q.Get("page_size"))
	if err != nil {
		badRequest(w, err)
		return
	}

	result, err := h.uc.ListClients(r.Context(), client.ListClientsInput{
		ActiveOnly: q.Get("active") == "true",
		PageSize:   pageSize,
		PageToken:  q.Get("page_token"),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	items := make([]clientResponse, 0, len(result.Clients))
	for _, c := range result.Clients {
		items = append(items, toClientResponse(c))
	}

	writeJSON(w, http.StatusOK, listResponse[clientResponse]{Items: items, NextPageToken: result.NextPageToken})
}

func toClientResponse(c *client.Client) clientResponse {
	return clientResponse{
		ID:             c.ID,
		Name:           c.Name,
		ContactPerson:  c.ContactPerson,
		Email:          c.Email,
		Phone:          c.Phone,
		City:           c.City,
		Postcode:       c.Postcode,
		FinanceContact: c.FinanceContact,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
}
