package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrConflict    = errors.New("run already in progress")
	ErrUnavailable = errors.New("service unavailable")
)
