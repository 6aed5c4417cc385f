package events

// Kind classifies room lifecycle events.
type Kind string

const (
	ParticipantJoined = Kind("joined")
	ParticipantLeft   = Kind("left")
	RoomEmptied       = Kind("emptied")
)

// RoomEvent describes one membership change in a room.
type RoomEvent struct {
	Kind          Kind
	RoomID        string
	ParticipantID string
}

// Bus carries room lifecycle events to observers (roster broadcasts).
type Bus struct {
	RoomEvents chan RoomEvent
}

func NewBus() *Bus {
	return &Bus{
		RoomEvents: make(chan RoomEvent, 64),
	}
}

// Publish enqueues an event without blocking; events are best-effort and
// dropped when no observer keeps up.
func (b *Bus) Publish(ev RoomEvent) {
	select {
	case b.RoomEvents <- ev:
	default:
	}
}
