package vm

import "errors"

var (
	ErrUnknownClass       = errors.New("unknown class")
	ErrSuperclassMismatch = errors.New("superclass mismatch")
	ErrUndefinedMethod    = errors.New("undefined method")
	ErrInvalidName        = errors.New("invalid name")
)
