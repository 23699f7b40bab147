package table

import (
	hostoffload "github.com/wippyai/host-offload"
)

// Event types for buffer lifecycle notifications.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventFreed
	EventComputed
)

// Event describes a buffer lifecycle transition. Size is the buffer's
// byte length. HasShape reports whether Shape is meaningful (a shape was
// registered for the handle at the time of the event).
type Event struct {
	Handle   hostoffload.Handle
	Size     uint64
	Shape    hostoffload.Shape
	Type     EventType
	HasShape bool
}

// Observer receives notifications about buffer lifecycle events.
// Observers are invoked after the table's critical section has completed,
// in subscription order.
type Observer interface {
	OnTableEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnTableEvent(e Event) { f(e) }
