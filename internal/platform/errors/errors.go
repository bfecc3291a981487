package apperrors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrConfigurationMissing = errors.New("configuration missing")
)
