package ratecard

import "errors"

var (
	ErrInvalidID            = errors.New("ratecard: invalid id")
	ErrInvalidClientID      = errors.New("ratecard: invalid client id")
	ErrInvalidJobRoleID     = errors.New("ratecard: invalid job role id")
	ErrInvalidEffectiveDate = errors.New("ratecard: invalid effective date")
	ErrInvalidDateRange     = errors.New("ratecard: end date before effective date")
	ErrInvalidRate          = errors.New("ratecard: rate must not be negative")
	ErrInvalidWorkType      = errors.New("ratecard: invalid work type")
	ErrInvalidPageSize      = errors.New("ratecard: invalid page size")
	ErrInvalidPageToken     = errors.New("ratecard: invalid page token")
	ErrRateCardNotFound     = errors.New("ratecard: not found")
	ErrClientNotFound       = errors.New("ratecard: client not found")
	ErrJobRoleNotFound      = errors.New("ratecard: job role not found")
	ErrNoApplicableRateCard = errors.New("ratecard: no applicable rate card")
)
