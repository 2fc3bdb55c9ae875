package models

type EventKind uint8

const (
	EventAxisX EventKind = iota + 1
	EventAxisY
	EventTouch // Value 1 = press, 0 = release
	EventSync  // end of one report frame
)

func (k EventKind) String() string {
	switch k {
	case EventAxisX:
		return "X"
	case EventAxisY:
		return "Y"
	case EventTouch:
		return "touch"
	case EventSync:
		return "sync"
	}
	return "unknown"
}

// Event is one decoded report from the touch controller.
type Event struct {
	Kind  EventKind
	Value int32
}
