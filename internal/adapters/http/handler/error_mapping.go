package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ogurasousui/staffing-clean-arch/internal/core/booking"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/candidate"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/client"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/invoice"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/jobrole"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/ratecard"
	"github.com/ogurasousui/staffing-clean-arch/internal/core/timesheet"
)

var notFoundErrors = []error{
	jobrole.ErrJobRoleNotFound,
	jobrole.ErrDocumentNotFound,
	client.ErrClientNotFound,
	candidate.ErrCandidateNotFound,
	candidate.ErrJobRoleNotFound,
	candidate.ErrRecordNotFound,
	ratecard.ErrRateCardNotFound,
	ratecard.ErrClientNotFound,
	ratecard.ErrJobRoleNotFound,
	booking.ErrBookingNotFound,
	booking.ErrAssignmentNotFound,
	booking.ErrCandidateNotFound,
	booking.ErrClientNotFound,
	booking.ErrJobRoleNotFound,
	timesheet.ErrTimesheetNotFound,
	timesheet.ErrAssignmentNotFound,
	invoice.ErrInvoiceNotFound,
	invoice.ErrClientNotFound,
	invoice.ErrTimesheetNotFound,
}

var conflictErrors = []error{
	jobrole.ErrTitleAlreadyExists,
	jobrole.ErrDocumentAlreadyExists,
	jobrole.ErrJobRoleInUse,
	client.ErrNameAlreadyExists,
	candidate.ErrEmailAlreadyExists,
	booking.ErrAlreadyAssigned,
	booking.ErrBookingCancelled,
	booking.ErrBookingFull,
	timesheet.ErrAlreadyExists,
	timesheet.ErrNotSubmittable,
	timesheet.ErrNotReviewable,
	invoice.ErrTimesheetInvoiced,
	invoice.ErrNotSendable,
	invoice.ErrNotPayable,
	invoice.ErrNotCancellable,
}

var unprocessableErrors = []error{
	ratecard.ErrNoApplicableRateCard,
	timesheet.ErrAssignmentNotCompleted,
	invoice.ErrTimesheetNotApproved,
	invoice.ErrTimesheetClientMismatch,
}

var invalidErrors = []error{
	jobrole.ErrInvalidID,
	jobrole.ErrInvalidTitle,
	jobrole.ErrInvalidDocumentName,
	jobrole.ErrInvalidPageSize,
	jobrole.ErrInvalidPageToken,
	client.ErrInvalidID,
	client.ErrInvalidName,
	client.ErrInvalidEmail,
	client.ErrInvalidPageSize,
	client.ErrInvalidPageToken,
	candidate.ErrInvalidID,
	candidate.ErrInvalidJobRoleID,
	candidate.ErrInvalidFirstName,
	candidate.ErrInvalidLastName,
	candidate.ErrInvalidEmail,
	candidate.ErrInvalidStatus,
	candidate.ErrInvalidAvailabilityDate,
	candidate.ErrInvalidPageSize,
	candidate.ErrInvalidPageToken,
	candidate.ErrInvalidRecordStatus,
	candidate.ErrExpiryDateRequired,
	ratecard.ErrInvalidID,
	ratecard.ErrInvalidClientID,
	ratecard.ErrInvalidJobRoleID,
	ratecard.ErrInvalidEffectiveDate,
	ratecard.ErrInvalidDateRange,
	ratecard.ErrInvalidRate,
	ratecard.ErrInvalidWorkType,
	ratecard.ErrInvalidPageSize,
	ratecard.ErrInvalidPageToken,
	booking.ErrInvalidID,
	booking.ErrInvalidClientID,
	booking.ErrInvalidJobRoleID,
	booking.ErrInvalidCandidateID,
	booking.ErrInvalidShiftWindow,
	booking.ErrInvalidHeadcount,
	booking.ErrInvalidStatus,
	booking.ErrInvalidAssignmentStatus,
	booking.ErrInvalidDateRange,
	booking.ErrInvalidPageSize,
	booking.ErrInvalidPageToken,
	booking.ErrCheckTimesRequired,
	timesheet.ErrInvalidID,
	timesheet.ErrInvalidAssignmentID,
	timesheet.ErrInvalidStatus,
	timesheet.ErrInvalidPageSize,
	timesheet.ErrInvalidPageToken,
	timesheet.ErrRejectReasonRequired,
	invoice.ErrInvalidID,
	invoice.ErrInvalidClientID,
	invoice.ErrInvalidStatus,
	invoice.ErrInvalidDateRange,
	invoice.ErrInvalidPageSize,
	invoice.ErrInvalidPageToken,
	invoice.ErrTimesheetIDsRequired,
}

// writeDomainError はドメインエラーを HTTP ステータスへ対応付けて出力します。
// アサイン不可は理由一覧を含む 422 になります。未知のエラーは 500 です。
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var eligErr *booking.EligibilityError
	if errors.As(err, &eligErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   "candidate is not eligible for this booking",
			Reasons: eligErr.Reasons,
		})
		return
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
			return
		}
	}

	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
			return
		}
	}

	for _, target := range unprocessableErrors {
		if errors.Is(err, target) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
			return
		}
	}

	for _, target := range invalidErrors {
		if errors.Is(err, target) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
	}

	if logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
