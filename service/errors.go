package service

import "errors"

// Error taxonomy for worksheet mutations. Handlers match these with
// errors.Is and map them to HTTP statuses; everything wrapping
// ErrTransientIO is safe for the caller to retry.
var (
	ErrNotFound     = errors.New("worksheet not found")
	ErrUnauthorized = errors.New("session does not own this worksheet")
	ErrInvalidTerm  = errors.New("selected term is not on the worksheet menu")
	ErrInvalidInput = errors.New("invalid input")
	ErrTransientIO  = errors.New("storage unavailable")
)
