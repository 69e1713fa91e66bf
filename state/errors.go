package state

import "errors"

// Sentinel errors for container construction and key derivation.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingIdentity = errors.New("turn is missing identity field")
	ErrDecode          = errors.New("decode state")
	ErrEncode          = errors.New("encode state")
)
