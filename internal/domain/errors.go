package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")
)

// Validation constants
const (
	MaxNameLength   = 200
	MaxRemarkLength = 500
)
