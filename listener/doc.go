// Package listener provides the event listener system for the host runtime.
//
// Components register their interest in a particular Event with a Registry;
// instrumentation call-sites report events with Registry.Notify. Every
// notification is counted, and the counts are read back through Stats
// snapshots.
//
// This package only counts and dispatches. Detecting that a structural
// mutation happened is the caller's job.
package listener
