package modern

import (
	"errors"
	"time"

	"github.com/xianyo/tscalibrator/models"
)

// script is an EventSource replaying batches; a nil batch is a timeout.
// Once exhausted every poll times out, up to maxIdle polls after which it
// fails so a wait that never ends cannot hang a test.
type script struct {
	batches [][]Event
	polls   int
	idle    int
	err     error
}

const maxIdle = 1000

var errScriptDone = errors.New("script exhausted")

func (s *script) PollEvents(time.Duration) ([]Event, error) {
	s.polls++
	if len(s.batches) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		if s.idle++; s.idle > maxIdle {
			return nil, errScriptDone
		}
		return nil, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func (s *script) push(b ...[]Event) { s.batches = append(s.batches, b...) }

// tap is one press-and-release at raw (i, j).
func tap(i, j int32) []Event {
	return []Event{
		{Kind: EventTouch, Value: 1},
		{Kind: EventAxisX, Value: i},
		{Kind: EventAxisY, Value: j},
		{Kind: EventSync},
		{Kind: EventTouch, Value: 0},
		{Kind: EventSync},
	}
}

// point queues what acquiring one target consumes: the empty poll that ends
// the flush, then the gesture.
func (s *script) point(i, j int32) { s.push(nil, tap(i, j)) }

type cross struct {
	X, Y  int
	Color uint32
}

type fakeDisplay struct {
	screen  models.Screen
	crosses []cross
	boxes   [][5]int
	clears  int
}

func (d *fakeDisplay) Screen() models.Screen { return d.screen }
func (d *fakeDisplay) DrawCross(x, y int, color uint32) {
	d.crosses = append(d.crosses, cross{x, y, color})
}
func (d *fakeDisplay) DrawBox(x1, y1, x2, y2 int, color uint32) {
	d.boxes = append(d.boxes, [5]int{x1, y1, x2, y2, int(color)})
}
func (d *fakeDisplay) Clear() { d.clears++ }

func (d *fakeDisplay) crossesOf(color uint32) []cross {
	var out []cross
	for _, c := range d.crosses {
		if c.Color == color {
			out = append(out, c)
		}
	}
	return out
}

type fakeSink struct {
	applied []models.Coefficients
	err     error
}

func (s *fakeSink) Apply(c models.Coefficients) error {
	s.applied = append(s.applied, c)
	return s.err
}

func (s *fakeSink) last() models.Coefficients {
	if len(s.applied) == 0 {
		return models.Unsolved()
	}
	return s.applied[len(s.applied)-1]
}

type fakeStore struct {
	saved []models.Coefficients
	err   error
}

func (s *fakeStore) Save(c models.Coefficients) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, c)
	return nil
}

func (s *fakeStore) Load() (models.Coefficients, error) {
	if len(s.saved) == 0 {
		return models.Coefficients{}, ErrNoStoredCalibration
	}
	return s.saved[len(s.saved)-1], nil
}

var errUnplugged = errors.New("unplugged")
