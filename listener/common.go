package listener

import "errors"

var (
	ErrUnknownEvent           = errors.New("unknown listener event")
	ErrNilListener            = errors.New("listener function is nil")
	ErrListenerTableFull      = errors.New("listener table full for event")
	ErrTraceAlreadyRegistered = errors.New("trace listeners already registered")
)

// MaxListenersPerEvent keeps notification cheap; registering past it fails.
const MaxListenersPerEvent = 16
