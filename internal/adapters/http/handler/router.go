package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/client"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/invoice"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/jobrole"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/timesheet"
	"github.com/ogurasousui/staffing-clean-arch/internal/platform/authz"
)

// Dependencies はルーター構築に必要な依存をまとめます。
type Dependencies struct {
	JobRoles   jobrole.UseCase
	Clients    client.UseCase
	Candidates candidate.UseCase
	RateCards  ratecard.UseCase
	Bookings   booking.UseCase
	Timesheets timesheet.UseCase
	Invoices   invoice.UseCase
	Policy     *authz.Policy
	Logger     *zap.Logger
}

// NewRouter は API 全体のルーターを構築します。
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	policy := deps.Policy
	if policy == nil {
		policy = authz.DefaultPolicy()
	}

	jobRoles := NewJobRoleHandler(deps.JobRoles, logger)
	clients := NewClientHandler(deps.Clients, logger)
	candidates := NewCandidateHandler(deps.Candidates, logger)
	rateCards := NewRateCardHandler(deps.RateCards, logger)
	bookings := NewBookingHandler(deps.Bookings, logger)
	timesheets := NewTimesheetHandler(deps.Timesheets, logger)
	invoices := NewInvoiceHandler(deps.Invoices, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/job-roles", func(r chi.Router) {
			r.With(authz.Require(policy, authz.ActionJobRoleRead)).Get("/", jobRoles.List)
			r.With(authz.Require(policy, authz.ActionJobRoleRead)).Get("/{id}", jobRoles.Get)
			r.With(authz.Require(policy, authz.ActionJobRoleWrite)).Post("/", jobRoles.Create)
			r.With(authz.Require(policy, authz.ActionJobRoleWrite)).Patch("/{id}", jobRoles.Update)
			r.With(authz.Require(policy, authz.ActionJobRoleWrite)).Delete("/{id}", jobRoles.Delete)
			r.With(authz.Require(policy, authz.ActionJobRoleRead)).Get("/{id}/compliance-documents", jobRoles.ListDocuments)
			r.With(authz.Require(policy, authz.ActionJobRoleWrite)).Post("/{id}/compliance-documents", jobRoles.AddDocument)
			r.With(authz.Require(policy, authz.ActionJobRoleWrite)).Delete("/{id}/compliance-documents/{documentID}", jobRoles.RemoveDocument)
		})

		r.Route("/clients", func(r chi.Router) {
			r.With(authz.Require(policy, authz.ActionClientRead)).Get("/", clients.List)
			r.With(authz.Require(policy, authz.ActionClientRead)).Get("/{id}", clients.Get)
			r.With(authz.Require(policy, authz.ActionClientWrite)).Post("/", clients.Create)
			r.With(authz.Require(policy, authz.ActionClientWrite)).Patch("/{id}", clients.Update)
			r.With(authz.Require(policy, authz.ActionClientWrite)).Delete("/{id}", clients.Delete)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.With(authz.Require(policy, authz.ActionCandidateRead)).Get("/", candidates.List)
			r.With(authz.Require(policy, authz.ActionCandidateRead)).Get("/{id}", candidates.Get)
			r.With(authz.Require(policy, authz.ActionCandidateWrite)).Post("/", candidates.Create)
			r.With(authz.Require(policy, authz.ActionCandidateWrite)).Patch("/{id}", candidates.Update)
			r.With(authz.Require(policy, authz.ActionCandidateWrite)).Delete("/{id}", candidates.Delete)
			r.With(authz.Require(policy, authz.ActionComplianceRead)).Get("/{id}/compliance", candidates.ComplianceSummary)
			r.With(authz.Require(policy, authz.ActionComplianceWrite)).Patch("/compliance-records/{recordID}", candidates.ReviewCompliance)
		})

		r.Route("/rate-cards", func(r chi.Router) {
			r.With(authz.Require(policy, authz.ActionRateCardRead)).Get("/", rateCards.List)
			r.With(authz.Require(policy, authz.ActionRateCardRead)).Get("/{id}", rateCards.Get)
			r.With(authz.Require(policy, authz.ActionRateCardWrite)).Post("/", rateCards.Create)
			r.With(authz.Require(policy, authz.ActionRateCardWrite)).Patch("/{id}", rateCards.Update)
		})

		r.With(authz.Require(policy, authz.ActionRateCardRead)).Get("/rate-quotes", rateCards.Quote)

		r.Route("/bookings", func(r chi.Router) {
			r.With(authz.Require(policy, authz.ActionBookingRead)).Get("/", bookings.List)
			r.With(authz.Require(policy, authz.ActionBookingRead)).Get("/{id}", bookings.Get)
			r.With(authz.Require(policy, authz.ActionBookingWrite)).Post("/", bookings.Create)
			r.With(authz.Require(policy, authz.ActionBookingWrite)).Patch("/{id}", bookings.Update)
			r.With(authz.Require(policy, authz.ActionBookingWrite)).Post("/{id}/cancel", bookings.Cancel)
			r.With(authz.Require(policy, authz.ActionBookingRead)).Get("/{id}/eligibility/{candidateID}", bookings.CheckEligibility)
			r.With(authz.Require(policy, authz.ActionAssignmentWrite)).Post("/{id}/assignments", bookings.Assign)
		})

		r.With(authz.Require(policy, authz.ActionAssignmentWrite)).Patch("/assignments/{id}/status", bookings.UpdateAssignmentStatus)

		r.Route("/timesheets", func(r chi.Router) {
			r.With(authz.Require(policy, authz.ActionTimesheetRead)).Get("/", timesheets.List)
			r.With(authz.Require(policy, authz.ActionTimesheetRead)).Get("/{id}", timesheets.Get)
			r.With(authz.Require(policy, authz.ActionTimesheetWrite)).Post("/", timesheets.Create)
			r.With(authz.Require(policy, authz.ActionTimesheetWrite)).Post("/{id}/submit", timesheets.Submit)
			r.With(authz.Require(policy, authz.ActionTimesheetReview)).Post("/{id}/approve", timesheets.Approve)
			r.With(authz.Require(policy, authz.ActionTimesheetReview)).Post("/{id}/reject", timesheets.Reject)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.With(authz.Require(policy, authz.ActionInvoiceRead)).Get("/", invoices.List)
			r.With(authz.Require(policy, authz.ActionInvoiceRead)).Get("/{id}", invoices.Get)
			r.With(authz.Require(policy, authz.ActionInvoiceWrite)).Post("/", invoices.Create)
			r.With(authz.Require(policy, authz.ActionInvoiceWrite)).Post("/{id}/send", invoices.Send)
			r.With(authz.Require(policy, authz.ActionInvoiceWrite)).Post("/{id}/pay", invoices.MarkPaid)
			r.With(authz.Require(policy, authz.ActionInvoiceWrite)).Post("/{id}/cancel", invoices.Cancel)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
