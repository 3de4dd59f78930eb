package frontend

import "errors"

var (
	ErrUnknownOp     = errors.New("unknown script op")
	ErrMissingField  = errors.New("missing required step field")
	ErrNestedClass   = errors.New("class set on a class_eval body step")
	ErrEmptyScript   = errors.New("script has no steps")
	ErrReplayAborted = errors.New("replay aborted")
)
