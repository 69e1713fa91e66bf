package turn

import "errors"

// Sentinel errors for service registry lookups and pipeline execution.
var (
	ErrServiceNotFound = errors.New("turn service not found")
	ErrServiceType     = errors.New("turn service type mismatch")
	ErrNextCalledTwice = errors.New("next called more than once")
)
