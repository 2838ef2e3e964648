package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrProviderFailure   = errors.New("provider failure")
	ErrTimeout           = errors.New("operation timed out")
)
