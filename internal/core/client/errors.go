package client

import "errors"

var (
	ErrInvalidID         = errors.New("client: invalid id")
	ErrInvalidName       = errors.New("client: invalid name")
	ErrInvalidEmail      = errors.New("client: invalid email")
	ErrInvalidPageSize   = errors.New("client: invalid page size")
	ErrInvalidPageToken  = errors.New("client: invalid page token")
	ErrClientNotFound    = errors.New("client: not found")
	ErrNameAlreadyExists = errors.New("client: name already exists")
)
