package modern

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xianyo/tscalibrator/models"
)

// DecayThreshold is the sample count above which an accumulator halves its
// sum and count before adding the next value.
const DecayThreshold = 256

// ErrNoInput means the touch controller produced no events at all while a
// calibration point was waiting to be touched.
var ErrNoInput = errors.New("idle waiting for touch screen")

// Accumulator is the running state of one axis.
type Accumulator struct {
	Sum   int64
	Count uint32
	Min   int32
	Max   int32
}

func NewAccumulator() Accumulator {
	return Accumulator{Min: math.MaxInt32, Max: math.MinInt32}
}

// Add folds v into the running sum. Halving keeps the sum bounded and
// progressively down-weights older samples.
func (a *Accumulator) Add(v int32) {
	if a.Count > DecayThreshold {
		a.Sum /= 2
		a.Count /= 2
	}
	a.Sum += int64(v)
	a.Count++
	if v > a.Max {
		a.Max = v
	}
	if v < a.Min {
		a.Min = v
	}
}

// Average returns sum/count, truncated toward zero. ok is false when no
// sample has been added.
func (a Accumulator) Average() (avg int32, ok bool) {
	if a.Count == 0 {
		return 0, false
	}
	return int32(a.Sum / int64(a.Count)), true
}

func (a *Accumulator) Reset() { *a = NewAccumulator() }

// Estimate is the result of one finalized gesture.
type Estimate struct {
	I, J int32
	X, Y Accumulator // axis state at finalization, for sample counts and extremes
}

// GestureFilter turns the event stream of one touch-and-release into a
// single (i, j) estimate. The zero value is not ready; use NewGestureFilter.
type GestureFilter struct {
	x, y     Accumulator
	released bool

	// Spurious counts releases that arrived with an empty axis.
	Spurious int
}

func NewGestureFilter() *GestureFilter {
	return &GestureFilter{x: NewAccumulator(), y: NewAccumulator()}
}

// Feed consumes one event. It returns done once a release has been followed
// by the end of its report frame with both axes sampled; the filter is then
// reset for the next gesture.
func (f *GestureFilter) Feed(ev Event) (est Estimate, done bool) {
	switch ev.Kind {
	case EventAxisX:
		f.x.Add(ev.Value)
	case EventAxisY:
		f.y.Add(ev.Value)
	case EventTouch:
		f.released = ev.Value == 0
	case EventSync:
		if !f.released {
			return Estimate{}, false
		}
		f.released = false
		if f.x.Count == 0 || f.y.Count == 0 {
			f.Spurious++
			return Estimate{}, false
		}
		i, _ := f.x.Average()
		j, _ := f.y.Average()
		est = Estimate{I: i, J: j, X: f.x, Y: f.y}
		f.x.Reset()
		f.y.Reset()
		return est, true
	}
	return Estimate{}, false
}

// Pending returns the current sample counts of both axes.
func (f *GestureFilter) Pending() (nx, ny uint32) { return f.x.Count, f.y.Count }

// ReadGesture blocks until a gesture completes. With idleFatal set, a wait
// that times out before any event arrived returns ErrNoInput; otherwise, and
// once input has been seen, timeouts keep waiting. onEvent, if set, observes
// every event.
func ReadGesture(src EventSource, timeout time.Duration, idleFatal bool, onEvent func(Event)) (Estimate, error) {
	f := NewGestureFilter()
	seen := !idleFatal
	for {
		evs, err := src.PollEvents(timeout)
		if err != nil {
			return Estimate{}, fmt.Errorf("read touch input: %w", err)
		}
		if len(evs) == 0 {
			if !seen {
				return Estimate{}, ErrNoInput
			}
			continue
		}
		seen = true
		for _, ev := range evs {
			if onEvent != nil {
				onEvent(ev)
			}
			if est, done := f.Feed(ev); done {
				return est, nil
			}
		}
	}
}

// ReadSample acquires one extended sample for the diagnostic sweep. ok is
// false if a wait timed out before the gesture completed.
func ReadSample(src EventSource, timeout time.Duration, onEvent func(Event)) (s models.TestSample, ok bool, err error) {
	f := NewGestureFilter()
	for {
		evs, err := src.PollEvents(timeout)
		if err != nil {
			return models.TestSample{}, false, fmt.Errorf("read touch input: %w", err)
		}
		if len(evs) == 0 {
			return models.TestSample{}, false, nil
		}
		for _, ev := range evs {
			if onEvent != nil {
				onEvent(ev)
			}
			if est, done := f.Feed(ev); done {
				return models.TestSample{
					NumI: est.X.Count,
					NumJ: est.Y.Count,
					AvgI: est.I,
					AvgJ: est.J,
					MinI: est.X.Min,
					MinJ: est.Y.Min,
					MaxI: est.X.Max,
					MaxJ: est.Y.Max,
				}, true, nil
			}
		}
	}
}
