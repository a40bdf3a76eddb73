package models

import "errors"

// Domain specific errors for authentication, authorization and the catalog.
// Handlers recover every one of these at the request boundary; only storage
// failures propagate as generic 500s.
var (
	ErrDuplicateEmail  = errors.New("an account with that email already exists")
	ErrUnknownAccount  = errors.New("no account found with that email")
	ErrBadCredential   = errors.New("incorrect password")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("action forbidden")
	ErrInvalidInput    = errors.New("validation failed")
	ErrNotFound        = errors.New("requested item not found")
)
