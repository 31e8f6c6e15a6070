package jobrole

import "errors"

var (
	ErrInvalidID             = errors.New("jobrole: invalid id")
	ErrInvalidTitle          = errors.New("jobrole: invalid title")
	ErrInvalidDocumentName   = errors.New("jobrole: invalid document name")
	ErrInvalidPageSize       = errors.New("jobrole: invalid page size")
	ErrInvalidPageToken      = errors.New("jobrole: invalid page token")
	ErrJobRoleNotFound       = errors.New("jobrole: not found")
	ErrDocumentNotFound      = errors.New("jobrole: compliance document not found")
	ErrTitleAlreadyExists    = errors.New("jobrole: title already exists")
	ErrDocumentAlreadyExists = errors.New("jobrole: compliance document already exists")
	ErrJobRoleInUse          = errors.New("jobrole: role is referenced and cannot be deleted")
)
