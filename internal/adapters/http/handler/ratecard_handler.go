package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
)

// RateCardHandler はレート表リソースの HTTP ハンドラーです。
type RateCardHandler struct {
	uc     ratecard.UseCase
	logger *zap.Logger
}

// NewRateCardHandler は RateCardHandler を生成します。
func NewRateCardHandler(uc ratecard.UseCase, logger *zap.Logger) *RateCardHandler {
	return &RateCardHandler{uc: uc, logger: logger}
}

type ratesPayload struct {
	Day         string `json:"day" validate:"required"`
	Night       string `json:"night" validate:"required"`
	Weekend     string `json:"weekend" validate:"required"`
	BankHoliday string `json:"bank_holiday" validate:"required"`
}

type rateCardResponse struct {
	ID            string       `json:"id"`
	ClientID      string       `json:"client_id"`
	JobRoleID     string       `json:"job_role_id"`
	EffectiveDate string       `json:"effective_date"`
	EndDate       *string      `json:"end_date,omitempty"`
	Active        bool         `json:"active"`
	ClientRates   ratesPayload `json:"client_rates"`
	WorkerRates   ratesPayload `json:"worker_rates"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     string       `json:"created_at"`
	UpdatedAt     string       `json:"updated_at"`
}

type quoteResponse struct {
	RateCardID    string `json:"rate_card_id"`
	WorkType      string `json:"work_type"`
	ClientRate    string `json:"client_rate"`
	WorkerRate    string `json:"worker_rate"`
	Margin        string `json:"margin"`
	MarginPercent string `json:"margin_percent"`
}

type createRateCardRequest struct {
	ClientID      string       `json:"client_id" validate:"required"`
	JobRoleID     string       `json:"job_role_id" validate:"required"`
	EffectiveDate string       `json:"effective_date" validate:"required"`
	EndDate       *string      `json:"end_date"`
	Active        *bool        `json:"active"`
	ClientRates   ratesPayload `json:"client_rates" validate:"required"`
	WorkerRates   ratesPayload `json:"worker_rates" validate:"required"`
	Notes         string       `json:"notes"`
}

type updateRateCardRequest struct {
	EndDate     *string       `json:"end_date"`
	EndDateSet  bool          `json:"-"`
	Active      *bool         `json:"active"`
	ClientRates *ratesPayload `json:"client_rates"`
	WorkerRates *ratesPayload `json:"worker_rates"`
	Notes       *string       `json:"notes"`
}

func (h *RateCardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	effective, err := parseDate(req.EffectiveDate)
	if err != nil {
		badRequest(w, err)
		return
	}

	var endDate *time.Time
	if req.EndDate != nil {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			badRequest(w, err)
			return
		}
		endDate = &t
	}

	clientRates, err := toRates(req.ClientRates)
	if err != nil {
		badRequest(w, err)
		return
	}

	workerRates, err := toRates(req.WorkerRates)
	if err != nil {
		badRequest(w, err)
		return
	}

	card, err := h.uc.CreateRateCard(r.Context(), ratecard.CreateRateCardInput{
		ClientID:      req.ClientID,
		JobRoleID:     req.JobRoleID,
		EffectiveDate: effective,
		EndDate:       endDate,
		Active:        req.Active,
		ClientRates:   clientRates,
		WorkerRates:   workerRates,
		Notes:         req.Notes,
		Actor:         actorFrom(r),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRateCardResponse(card))
}

func (h *RateCardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	in := ratecard.UpdateRateCardInput{
		ID:     chi.URLParam(r, "id"),
		Active: req.Active,
		Notes:  req.Notes,
		Actor:  actorFrom(r),
	}

	if req.EndDate != nil {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			badRequest(w, err)
			return
		}
		in.EndDate = &t
		in.EndDateSet = true
	}

	if req.ClientRates != nil {
		rates, err := toRates(*req.ClientRates)
		if err != nil {
			badRequest(w, err)
			return
		}
		in.ClientRates = &rates
	}

	if req.WorkerRates != nil {
		rates, err := toRates(*req.WorkerRates)
		if err != nil {
			badRequest(w, err)
			return
		}
		in.WorkerRates = &rates
	}

	card, err := h.uc.UpdateRateCard(r.Context(), in)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toRateCardResponse(card))
}

func (h *RateCardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.uc.GetRateCard(r.Context(), ratecard.GetRateCardInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toRateCardResponse(card))
}

func (h *RateCardHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := parsePageSizeParam(q.Get("page_size"))
	if err != nil {
		badRequest(w, err)
		return
	}

	result, err := h.uc.ListRateCards(r.Context(), ratecard.ListRateCardsInput{
		ClientID:  q.Get("client_id"),
		JobRoleID: q.Get("job_role_id"),
		PageSize:  pageSize,
		PageToken: q.Get("page_token"),
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	items := make([]rateCardResponse, 0, len(result.RateCards))
	for _, card := range result.RateCards {
		items = append(items, toRateCardResponse(card))
	}

	writeJSON(w, http.StatusOK, listResponse[rateCardResponse]{Items: items, NextPageToken: result.NextPageToken})
}

// Quote はレート照会を処理します。shift_start か work_type のどちらかが必要です。
func (h *RateCardHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in := ratecard.QuoteRateInput{
		ClientID:  q.Get("client_id"),
		JobRoleID: q.Get("job_role_id"),
	}

	if raw := q.Get("work_type"); raw != "" {
		wt := ratecard.WorkType(raw)
		in.WorkType = &wt
	}

	shiftStart, err := parseOptionalInstant(q.Get("shift_start"))
	if err != nil {
		badRequest(w, err)
		return
	}
	in.ShiftStart = shiftStart

	asOf, err := parseOptionalDate(q.Get("as_of"))
	if err != nil {
		badRequest(w, err)
		return
	}
	in.AsOf = asOf

	quote, err := h.uc.QuoteRate(r.Context(), in)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		RateCardID:    quote.RateCardID,
		WorkType:      string(quote.WorkType),
		ClientRate:    quote.ClientRate.StringFixed(2),
		WorkerRate:    quote.WorkerRate.StringFixed(2),
		Margin:        quote.Margin.StringFixed(2),
		MarginPercent: quote.MarginPercent.StringFixed(2),
	})
}

func toRates(p ratesPayload) (ratecard.Rates, error) {
	day, err := decimal.NewFromString(p.Day)
	if err != nil {
		return ratecard.Rates{}, err
	}
	night, err := decimal.NewFromString(p.Night)
	if err != nil {
		return ratecard.Rates{}, err
	}
	weekend, err := decimal.NewFromString(p.Weekend)
	if err != nil {
		return ratecard.Rates{}, err
	}
	bankHoliday, err := decimal.NewFromString(p.BankHoliday)
	if err != nil {
		return ratecard.Rates{}, err
	}

	return ratecard.Rates{Day: day, Night: night, Weekend: weekend, BankHoliday: bankHoliday}, nil
}

func toRatesPayload(rates ratecard.Rates) ratesPayload {
	return ratesPayload{
		Day:         rates.Day.StringFixed(2),
		Night:       rates.Night.StringFixed(2),
		Weekend:     rates.Weekend.StringFixed(2),
		BankHoliday: rates.BankHoliday.StringFixed(2),
	}
}

func toRateCardResponse(card *ratecard.RateCard) rateCardResponse {
	return rateCardResponse{
		ID:            card.ID,
		ClientID:      card.ClientID,
		JobRoleID:     card.JobRoleID,
		EffectiveDate: formatDate(card.EffectiveDate),
		EndDate:       formatOptionalDate(card.EndDate),
		Active:        card.Active,
		ClientRates:   toRatesPayload(card.ClientRates),
		WorkerRates:   toRatesPayload(card.WorkerRates),
		Notes:         card.Notes,
		CreatedAt:     card.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     card.UpdatedAt.Format(time.RFC3339),
	}
}
