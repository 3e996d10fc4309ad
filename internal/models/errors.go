package models

import "errors"

// Error kinds surfaced across the API boundary. Handlers map these to a
// stable machine-readable code plus a human string; nothing else crosses.
var (
	ErrNotFound               = errors.New("not found")
	ErrValidationFailed       = errors.New("validation failed")
	ErrUpstreamFailure        = errors.New("upstream failure")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidConfirmation    = errors.New("invalid confirmation")
	ErrTagRegistrationFailed  = errors.New("tag registration failed")
)
