package model

import "fmt"

// Status is the lifecycle state of an item.
type Status string

// Item statuses.
const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusExchanged Status = "exchanged"
	StatusRemoved   Status = "removed"
)

// transitions lists the allowed target states for each state.
var transitions = map[Status][]Status{
	StatusAvailable: {StatusReserved, StatusExchanged, StatusRemoved},
	StatusReserved:  {StatusAvailable, StatusExchanged, StatusRemoved},
	StatusExchanged: {StatusRemoved},
	StatusRemoved:   nil,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// TransitionError is returned when an item cannot move between two states.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change item status from %s to %s", e.From, e.To)
}

// Transition checks whether an item may move from one status to another.
func Transition(from, to Status) error {
	for _, s := range transitions[from] {
		if s == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}
