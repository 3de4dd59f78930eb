package listener

import (
	"fmt"
	"sync/atomic"
)

// Recorder counts events. Instrumentation call-sites hold a Recorder rather
// than reaching for a global so tests can swap in a fresh one.
type Recorder interface {
	Increment(e Event)
	Snapshot() Stats
}

// Counters is a lock-free Recorder: one atomic counter per event.
type Counters struct {
	counts [NumEvents]atomic.Uint64
}

// Default is the process-wide counter table.
var Default = NewCounters()

// NewCounters returns a table with every event initialised to zero.
func NewCounters() *Counters {
	return &Counters{}
}

// Increment records one occurrence of e. It panics if e is not a tracked
// event.
func (c *Counters) Increment(e Event) {
	c.Add(e, 1)
}

// Add records n occurrences of e.
func (c *Counters) Add(e Event, n uint64) {
	if !e.Valid() {
		panic(fmt.Sprintf("listener: increment of %v", e))
	}

	c.counts[e].Add(n)
}

// Snapshot copies the current counts. Each event's value is read atomically;
// values of different events may come from slightly different instants.
func (c *Counters) Snapshot() Stats {
	var s Stats
	for i := range c.counts {
		s[i] = c.counts[i].Load()
	}

	return s
}
