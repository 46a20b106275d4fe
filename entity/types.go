package entity

import "fmt"

// ID identifies an entity slot within one store.
// V is the view kind the store produces, so IDs issued by stores of different kinds
// are different types and cannot be exchanged.
type ID[V any] struct {
	index uint32
}

// Index returns the slot position of the ID.
func (id ID[V]) Index() int {
	return int(id.index)
}

func (id ID[V]) String() string {
	return fmt.Sprintf("#%d", id.index)
}

func makeID[V any](index int) ID[V] {
	return ID[V]{index: uint32(index)}
}

// EventType identifies an entity lifecycle event.
type EventType uint8

const (
	EventCreated EventType = iota
	EventBorrowed
	EventReturned
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventBorrowed:
		return "borrowed"
	case EventReturned:
		return "returned"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle transition of an entity.
type Event struct {
	Ref   any
	Store string
	Index int
	Type  EventType
}

// Observer receives notifications about entity lifecycle events.
type Observer interface {
	OnEntityEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEntityEvent calls f(e).
func (f ObserverFunc) OnEntityEvent(e Event) {
	f(e)
}

// NoCopy may be embedded in view types so that go vet reports copies of them.
// A view is a capability tied to one borrow; a copy would outlive it.
type NoCopy struct{}

// Lock is a no-op used by the go vet copylocks checker.
func (*NoCopy) Lock() {}

// Unlock is a no-op used by the go vet copylocks checker.
func (*NoCopy) Unlock() {}
