package booking

import (
	"errors"
	"strings"
)

var (
	ErrInvalidID               = errors.New("booking: invalid id")
	ErrInvalidClientID         = errors.New("booking: invalid client id")
	ErrInvalidJobRoleID        = errors.New("booking: invalid job role id")
	ErrInvalidCandidateID      = errors.New("booking: invalid candidate id")
	ErrInvalidShiftWindow      = errors.New("booking: shift end must be after shift start")
	ErrInvalidHeadcount        = errors.New("booking: candidates needed must be positive")
	ErrInvalidStatus           = errors.New("booking: invalid status")
	ErrInvalidAssignmentStatus = errors.New("booking: invalid assignment status")
	ErrInvalidDateRange        = errors.New("booking: invalid date range filter")
	ErrInvalidPageSize         = errors.New("booking: invalid page size")
	ErrInvalidPageToken        = errors.New("booking: invalid page token")
	ErrBookingNotFound         = errors.New("booking: not found")
	ErrAssignmentNotFound      = errors.New("booking: assignment not found")
	ErrCandidateNotFound       = errors.New("booking: candidate not found")
	ErrClientNotFound          = errors.New("booking: client not found")
	ErrJobRoleNotFound         = errors.New("booking: job role not found")
	ErrBookingCancelled        = errors.New("booking: booking is cancelled")
	ErrBookingFull             = errors.New("booking: no remaining positions")
	ErrAlreadyAssigned         = errors.New("booking: candidate already assigned")
	ErrCheckTimesRequired      = errors.New("booking: check-in and check-out times are required")
	ErrCandidateNotEligible    = errors.New("booking: candidate not eligible")
)

// EligibilityError は ErrCandidateNotEligible に違反理由の一覧を添えた
// エラーです。errors.Is(err, ErrCandidateNotEligible) で判別できます。
type EligibilityError struct {
	Reasons []string
}

// Error は理由を結合したメッセージを返します。
func (e *EligibilityError) Error() string {
	return ErrCandidateNotEligible.Error() + ": " + strings.Join(e.Reasons, "; ")
}

// Unwrap は ErrCandidateNotEligible を返します。
func (e *EligibilityError) Unwrap() error {
	return ErrCandidateNotEligible
}
