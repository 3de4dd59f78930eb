package listener

import (
	"encoding/json"
	"fmt"
)

// Stats is a point-in-time copy of a counter table, indexed by Event.
//
// Stats is a value: holding one never observes later increments.
type Stats [NumEvents]uint64

// Get returns the count recorded for e.
func (s Stats) Get(e Event) uint64 {
	return s[e]
}

// Delta returns s - prev for every event. prev must have been taken before s
// from the same counter table.
func (s Stats) Delta(prev Stats) Stats {
	var d Stats
	for i := range s {
		d[i] = s[i] - prev[i]
	}

	return d
}

// Each calls fn for every event in declaration order.
func (s Stats) Each(fn func(e Event, count uint64)) {
	for i, c := range s {
		fn(Event(i), c)
	}
}

// MarshalJSON writes the table as an object keyed by event name.
func (s Stats) MarshalJSON() ([]byte, error) {
	m := make(map[string]uint64, NumEvents)
	for i, c := range s {
		m[eventNames[i]] = c
	}

	return json.Marshal(m)
}

// UnmarshalJSON accepts the object written by MarshalJSON. Events missing
// from the object are zero.
func (s *Stats) UnmarshalJSON(b []byte) error {
	var m map[string]uint64
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	var out Stats
	for name, c := range m {
		e, err := ParseEvent(name)
		if err != nil {
			return err
		}

		out[e] = c
	}

	*s = out

	return nil
}
