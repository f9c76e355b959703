package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe            = errors.New("status server failed")
	ErrMethodNotAllowed = errors.New("method not allowed")
)
