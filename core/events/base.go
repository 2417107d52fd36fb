package events

import "time"

type Kind string

// Event is a message received from a client, addressed to one room.
type Event interface {
	Kind() Kind
	Room() string
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	room      string
	timestamp time.Time
}

func NewBase(kind Kind, room string) Base {
	return Base{kind: kind, room: room, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Room() string {
	return b.room
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
