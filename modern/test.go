package modern

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xianyo/tscalibrator/matrix"
	"github.com/xianyo/tscalibrator/models"
)

// GridSize is the number of rows and columns of the diagnostic sweep.
const GridSize = 8

// Rect is an inclusive hit region in screen pixels.
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// TestLayout holds the two buttons of the testing screen.
type TestLayout struct {
	Confirm Rect
	Sweep   Rect
}

// NewTestLayout sizes the buttons to 16 pixels per 640 of screen width.
func NewTestLayout(s models.Screen) TestLayout {
	b := (16 * s.Width) / 640
	top := s.Height/2 - b
	left := s.Width/4 - b
	sweepLeft := 3*(s.Width/4) - b
	return TestLayout{
		Confirm: Rect{Left: left, Top: top, Right: left + b, Bottom: top + b},
		Sweep:   Rect{Left: sweepLeft, Top: top, Right: sweepLeft + b, Bottom: top + b},
	}
}

// rawToScreen maps a raw reading onto the screen the way the testing screen
// tracks the finger: proportionally to the raw span, without the offset.
func rawToScreen(v int32, size int, span int32) int {
	if span == 0 {
		return 0
	}
	return int(int64(v) * int64(size) / int64(span))
}

// confirm shows the testing screen and waits for a release on one of its
// buttons. It returns StateDone after a durable save, or StateAborted after a
// sweep or an idle timeout.
func (c *Calibrator) confirm(attempt int, coeffs models.Coefficients) (State, *SweepResult, error) {
	s := c.Display.Screen()
	layout := NewTestLayout(s)

	c.Display.Clear()
	c.emit(Progress{
		State:    StateTesting,
		Attempt:  attempt,
		Title:    "Touch green box to confirm",
		Subtitle: "Touch red box to run 64-point test",
	})
	c.Display.DrawBox(layout.Confirm.Left, layout.Confirm.Top, layout.Confirm.Right, layout.Confirm.Bottom, ColorGreen)
	c.Display.DrawBox(layout.Sweep.Left, layout.Sweep.Top, layout.Sweep.Right, layout.Sweep.Bottom, ColorRed)

	lastX, lastY := -1, 0
	var lastI, lastJ int32
	released := false
	for {
		evs, err := c.Input.PollEvents(c.timeout(c.TestTimeout, DefaultTestTimeout))
		if err != nil {
			return StateAborted, nil, fmt.Errorf("read touch input: %w", err)
		}
		if len(evs) == 0 {
			c.Log.Info("timeout waiting for release")
			return StateAborted, nil, nil
		}
		for _, ev := range evs {
			c.observe(ev)
			switch ev.Kind {
			case EventAxisX:
				lastI = ev.Value
				lastX = rawToScreen(ev.Value, s.Width, c.Range.XSpan())
			case EventAxisY:
				lastJ = ev.Value
				lastY = rawToScreen(ev.Value, s.Height, c.Range.YSpan())
			case EventTouch:
				released = ev.Value == 0
				if released {
					c.drawCross(lastX, lastY, ColorRelease)
				} else {
					c.drawCross(lastX, lastY, ColorPress)
				}
			case EventSync:
				if !released {
					c.drawCross(lastX, lastY, ColorTrack)
					c.Log.Debugf("%d:%d..%d:%d", lastI, lastJ, lastX, lastY)
					continue
				}
				released = false
				switch {
				case layout.Confirm.Contains(lastX, lastY):
					c.Log.Infof("Calibration settings confirmed @%d:%d", lastX, lastY)
					if err := c.Store.Save(coeffs); err != nil {
						return StateAborted, nil, fmt.Errorf("save calibration: %w", err)
					}
					return StateDone, nil, nil
				case layout.Sweep.Contains(lastX, lastY):
					sweep, err := c.Sweep(attempt, coeffs)
					return StateAborted, sweep, err
				default:
					c.drawCross(lastX, lastY, ColorBlue)
					c.Log.Warnf("Touch out of range [%d:%d]", lastX, lastY)
				}
			}
		}
	}
}

func (c *Calibrator) drawCross(x, y int, color uint32) {
	if x < 0 || y < 0 {
		return
	}
	c.Display.DrawCross(x, y, color)
}

// GridTargets lays out the sweep points row by row, one grid cell in from
// every edge.
func GridTargets(s models.Screen) []Target {
	xincr := s.Width / (GridSize + 1)
	yincr := s.Height / (GridSize + 1)
	out := make([]Target, 0, GridSize*GridSize)
	for row := 1; row <= GridSize; row++ {
		for col := 1; col <= GridSize; col++ {
			out = append(out, Target{X: col * xincr, Y: row * yincr})
		}
	}
	return out
}

// SweepResult is the output of a diagnostic sweep.
type SweepResult struct {
	Samples  []models.TestSample
	Complete bool
	Fit      *matrix.Fit // least-squares fit over the grid, when complete
	RMS      float64     // residual of the session coefficients over the grid
}

// Sweep acquires one extended sample at each grid point. The first point that
// times out ends the sweep early. Nothing is written to the store.
func (c *Calibrator) Sweep(attempt int, coeffs models.Coefficients) (*SweepResult, error) {
	s := c.Display.Screen()
	targets := GridTargets(s)
	res := &SweepResult{Samples: make([]models.TestSample, 0, len(targets))}

	c.Display.Clear()
	c.apply(models.Disabled())
	for k, t := range targets {
		c.emit(Progress{State: StateSweeping, Attempt: attempt, Point: k, Total: len(targets), Target: t})
		if err := c.flush(); err != nil {
			return res, err
		}
		c.Display.DrawCross(t.X, t.Y, ColorWhite)
		sample, ok, err := ReadSample(c.Input, c.timeout(c.TestTimeout, DefaultTestTimeout), c.observe)
		c.Display.DrawCross(t.X, t.Y, ColorBlack)
		if err != nil {
			return res, err
		}
		if !ok {
			c.Log.Info("timeout waiting for release")
			break
		}
		sample.X, sample.Y = uint32(t.X), uint32(t.Y)
		res.Samples = append(res.Samples, sample)
	}

	if len(res.Samples) < len(targets) {
		c.Log.Warnf("64-point calibration abandoned after %d points", len(res.Samples))
		return res, nil
	}
	res.Complete = true
	c.Log.Info("64-point calibration:")
	for _, sm := range res.Samples {
		c.Log.Infof("%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d",
			sm.X, sm.Y, sm.NumI, sm.NumJ, sm.AvgI, sm.AvgJ, sm.MinI, sm.MinJ, sm.MaxI, sm.MaxJ)
	}

	obs := sweepObservations(res.Samples, s, c.Range)
	res.RMS = matrix.Residual(coeffs, obs)
	fit, err := matrix.FitAffine(obs)
	if err != nil {
		c.Log.WithError(err).Warn("least-squares fit failed")
		return res, nil
	}
	res.Fit = &fit
	c.Log.WithFields(log.Fields{
		"fit":     fit.Coefficients.String(),
		"fit_rms": fmt.Sprintf("%.2f", fit.RMS),
		"rms":     fmt.Sprintf("%.2f", res.RMS),
	}).Info("64-point fit")
	return res, nil
}

// sweepObservations scales each grid target into the raw span so it can be
// compared with a transform solved from calibration points.
func sweepObservations(samples []models.TestSample, s models.Screen, r models.Range) []matrix.Observation {
	obs := make([]matrix.Observation, 0, len(samples))
	for _, sm := range samples {
		x, y := scaleTarget(Target{X: int(sm.X), Y: int(sm.Y)}, s, r)
		obs = append(obs, matrix.Observation{
			X: float64(x),
			Y: float64(y),
			I: float64(sm.AvgI),
			J: float64(sm.AvgJ),
		})
	}
	return obs
}
