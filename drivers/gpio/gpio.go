// Package gpio abstracts the character-device GPIO lines the board
// uses, so services can run against fakes in tests.
package gpio

import "time"

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Edge selection for event inputs.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// Event is one edge on an input line, timestamped by the kernel where
// the backend supports it.
type Event struct {
	Offset int
	Rising bool
	Time   time.Time
}

// Line is one requested GPIO line.
type Line interface {
	Value() (bool, error)
	SetValue(bool) error
	Close() error
}

// Chip hands out lines by offset. Input lines may deliver edge events
// to a handler; pass EdgeNone with a nil handler for plain polling.
type Chip interface {
	RequestInput(offset int, pull Pull, edge Edge, handler func(Event)) (Line, error)
	RequestOutput(offset int, initial bool) (Line, error)
	Close() error
}
