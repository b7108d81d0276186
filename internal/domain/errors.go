package domain

import "errors"

// Error kinds shared by every module. Callers wrap them with context and
// match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
	ErrExternalFailure = errors.New("external failure")
	ErrUnauthorized    = errors.New("unauthorized")
)
