package kernel

import "errors"

// ErrNoHandler is returned by Process when called without a handler.
var ErrNoHandler = errors.New("turn handler is required")
