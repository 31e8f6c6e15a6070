package candidate

import "errors"

var (
	ErrInvalidID               = errors.New("candidate: invalid id")
	ErrInvalidJobRoleID        = errors.New("candidate: invalid job role id")
	ErrInvalidFirstName        = errors.New("candidate: invalid first name")
	ErrInvalidLastName         = errors.New("candidate: invalid last name")
	ErrInvalidEmail            = errors.New("candidate: invalid email")
	ErrInvalidStatus           = errors.New("candidate: invalid status")
	ErrInvalidAvailabilityDate = errors.New("candidate: invalid availability date")
	ErrInvalidPageSize         = errors.New("candidate: invalid page size")
	ErrInvalidPageToken        = errors.New("candidate: invalid page token")
	ErrCandidateNotFound       = errors.New("candidate: not found")
	ErrJobRoleNotFound         = errors.New("candidate: job role not found")
	ErrEmailAlreadyExists      = errors.New("candidate: email already exists")
	ErrRecordNotFound          = errors.New("candidate: compliance record not found")
	ErrInvalidRecordStatus     = errors.New("candidate: invalid compliance status")
	ErrExpiryDateRequired      = errors.New("candidate: expiry date required for this document")
)
