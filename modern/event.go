package modern

import (
	"time"

	"github.com/xianyo/tscalibrator/models"
)

type (
	Event     = models.Event
	EventKind = models.EventKind
)

const (
	EventAxisX = models.EventAxisX
	EventAxisY = models.EventAxisY
	EventTouch = models.EventTouch
	EventSync  = models.EventSync
)

// EventSource is the input collaborator. PollEvents blocks at most timeout
// and returns an empty slice when nothing arrived; an error means the device
// itself failed.
type EventSource interface {
	PollEvents(timeout time.Duration) ([]Event, error)
}

// Flush discards pending input: it polls with the given timeout until a poll
// returns nothing.
func Flush(src EventSource, timeout time.Duration) error {
	for {
		evs, err := src.PollEvents(timeout)
		if err != nil {
			return err
		}
		if len(evs) == 0 {
			return nil
		}
	}
}
