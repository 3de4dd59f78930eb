package listener

import (
	"fmt"
)

// Event identifies a category of tracked structural event.
type Event int32

const (
	Generic              Event = iota // for debug / unspecified purposes
	BOPRedefinition                   // a basic operator was redefined
	OpCodeExecution                   // an instruction was executed
	ConstantRedefinition              // a constant was reassigned
	DefineClass                       // a class was defined or reopened
	DefineMethod                      // a method was defined

	eventEnd
)

// NumEvents is the number of tracked event kinds.
const NumEvents = int(eventEnd)

var eventNames = [NumEvents]string{
	Generic:              "GENERIC",
	BOPRedefinition:      "BOP_REDEFINITION",
	OpCodeExecution:      "OP_CODE_EXECUTION",
	ConstantRedefinition: "CONSTANT_REDEFINITION",
	DefineClass:          "DEFINE_CLASS",
	DefineMethod:         "DEFINE_METHOD",
}

// Events returns every tracked event kind in declaration order.
func Events() []Event {
	evs := make([]Event, 0, NumEvents)
	for e := Event(0); e < eventEnd; e++ {
		evs = append(evs, e)
	}

	return evs
}

// Valid reports whether e belongs to the tracked set.
func (e Event) Valid() bool {
	return e >= 0 && e < eventEnd
}

func (e Event) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Event(%d)", int32(e))
	}

	return eventNames[e]
}

// ParseEvent looks up an event by its canonical name, e.g. "DEFINE_CLASS".
func ParseEvent(name string) (Event, error) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

func (e Event) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEvent, int32(e))
	}

	return []byte(eventNames[e]), nil
}

func (e *Event) UnmarshalText(text []byte) error {
	ev, err := ParseEvent(string(text))
	if err != nil {
		return err
	}

	*e = ev

	return nil
}

// BOPRedefinitionData is passed with BOPRedefinition: which basic operator
// was redefined and the redefinition flag of the class it was redefined on.
type BOPRedefinitionData struct {
	BOP  int
	Flag int
}

// ConstantRedefinitionData is passed with ConstantRedefinition.
type ConstantRedefinitionData struct {
	Class    string
	Name     string
	OldValue any
	NewValue any
}

// ClassDefinitionData is passed with DefineClass.
type ClassDefinitionData struct {
	Class string
	Super string // empty for root classes
}

// MethodDefinitionData is passed with DefineMethod.
type MethodDefinitionData struct {
	Class  string
	Method string
}

// OpCodeExecutionData is passed with OpCodeExecution.
type OpCodeExecutionData struct {
	Op string
}
