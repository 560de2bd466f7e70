package services

import "errors"

// Sentinel errors shared across services. Handlers match these with
// errors.Is to pick a status code instead of parsing error strings.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrValidation   = errors.New("invalid input")
)
