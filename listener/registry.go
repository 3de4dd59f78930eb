package listener

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Func is invoked when an event it was registered for is notified. data is
// the payload supplied by the call-site (see the *Data types), and may be nil.
type Func func(e Event, data any)

// Registry holds the registered listeners for each event and counts every
// notification.
//
// Listeners should not depend on a particular order of evaluation.
type Registry struct {
	logger *zap.SugaredLogger

	mu        sync.RWMutex
	listeners [NumEvents][]Func

	events     Recorder
	dispatched *Counters
}

// NewRegistry returns an empty registry recording notifications into rec. A
// nil rec gets a fresh counter table; pass Default to share the process-wide
// one.
func NewRegistry(logger *zap.SugaredLogger, rec Recorder) *Registry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if rec == nil {
		rec = NewCounters()
	}

	return &Registry{
		logger:     logger,
		events:     rec,
		dispatched: NewCounters(),
	}
}

// Register adds fn to the listeners of e.
func (r *Registry) Register(e Event, fn Func) error {
	if !e.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownEvent, int32(e))
	}

	if fn == nil {
		return fmt.Errorf("%w: event %s", ErrNilListener, e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.listeners[e]) == MaxListenersPerEvent {
		return fmt.Errorf("%w: %s has %d listeners", ErrListenerTableFull, e, MaxListenersPerEvent)
	}

	r.listeners[e] = append(r.listeners[e], fn)

	r.logger.Debugw("registered listener", "event", e, "listeners", len(r.listeners[e]))

	return nil
}

// Listeners returns how many listeners are registered for e.
func (r *Registry) Listeners(e Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.listeners[e])
}

// Notify calls every listener registered for e with data, then records the
// event once. Listeners registered while Notify runs are not called.
func (r *Registry) Notify(e Event, data any) {
	if !e.Valid() {
		panic(fmt.Sprintf("listener: notify of %v", e))
	}

	r.mu.RLock()
	fns := r.listeners[e]
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(e, data)
	}

	r.events.Increment(e)
	r.dispatched.Add(e, uint64(len(fns)))
}

// Stats is a snapshot of how many times each event was notified.
func (r *Registry) Stats() Stats {
	return r.events.Snapshot()
}

// Dispatched is a snapshot of how many listener invocations each event
// caused.
func (r *Registry) Dispatched() Stats {
	return r.dispatched.Snapshot()
}
