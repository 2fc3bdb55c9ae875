package modern

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xianyo/tscalibrator/matrix"
	"github.com/xianyo/tscalibrator/models"
)

// ErrNotConfirmed ends a run whose every attempt went unconfirmed. The live
// sink has been disabled by then.
var ErrNotConfirmed = errors.New("calibration settings not confirmed")

type State string

const (
	StateAcquiring State = "acquiring"
	StateSolving   State = "solving"
	StateTesting   State = "testing"
	StateSweeping  State = "sweeping"
	StateDone      State = "done"
	StateAborted   State = "aborted"
)

// 24-bit RGB colors handed to the Display.
const (
	ColorBlack uint32 = 0x000000
	ColorWhite uint32 = 0xFFFFFF
	ColorGreen uint32 = 0x00D000
	ColorRed   uint32 = 0xD00000
	ColorBlue  uint32 = 0x0000FF
	ColorTrack uint32 = 0x808080

	ColorPress   uint32 = 0x8080FF
	ColorRelease uint32 = 0x808000
)

const (
	DefaultAttempts       = 4
	DefaultAcquireTimeout = 10 * time.Second
	DefaultTestTimeout    = 5 * time.Second
	DefaultFlushTimeout   = 100 * time.Millisecond
)

// Display is the drawing surface. Coordinates are screen pixels; anything
// outside the surface is clipped.
type Display interface {
	Screen() models.Screen
	DrawCross(x, y int, color uint32)
	DrawBox(x1, y1, x2, y2 int, color uint32)
	Clear()
}

// DriverSink applies a transform to the running input pipeline.
type DriverSink interface {
	Apply(c models.Coefficients) error
}

// Store persists confirmed coefficients.
type Store interface {
	Save(c models.Coefficients) error
}

// Target is a screen location the operator is asked to touch.
type Target struct {
	X, Y int
}

type Progress struct {
	State    State
	Attempt  int // 1-based
	Point    int // index within the current step
	Total    int
	Target   Target
	Title    string
	Subtitle string
}

// Result describes a finished run.
type Result struct {
	Confirmed    bool
	Attempts     int
	Coefficients models.Coefficients
	Points       [3]models.CalibrationPoint
	Sweep        *SweepResult // last diagnostic sweep, if one ran
}

// Calibrator owns one interactive calibration run over its collaborators.
type Calibrator struct {
	Display Display
	Input   EventSource
	Range   models.Range
	Sink    DriverSink
	Store   Store
	Solve   matrix.Solver
	Log     *log.Entry

	Attempts       int
	AcquireTimeout time.Duration
	TestTimeout    time.Duration
	FlushTimeout   time.Duration

	OnProgress func(Progress)
	OnEvent    func(Event)

	// seen is set by the first event of a run; idle waits are fatal only
	// before it.
	seen bool
}

// NewCalibrator wires a Calibrator from the parameter document.
func NewCalibrator(p *models.PARAMETERS, d Display, in EventSource, r models.Range, sink DriverSink, store Store, logger *log.Entry) (*Calibrator, error) {
	if p == nil {
		return nil, fmt.Errorf("parameters nil")
	}
	if d == nil || in == nil || sink == nil || store == nil {
		return nil, fmt.Errorf("calibrator needs display, input, sink and store")
	}
	solve, err := matrix.SolverByName(p.SOLVER)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Calibrator{
		Display:        d,
		Input:          in,
		Range:          r,
		Sink:           sink,
		Store:          store,
		Solve:          solve,
		Log:            logger,
		Attempts:       orDefault(p.ATTEMPTS, DefaultAttempts),
		AcquireTimeout: msOrDefault(p.ACQUIRETIMEOUT, DefaultAcquireTimeout),
		TestTimeout:    msOrDefault(p.TESTTIMEOUT, DefaultTestTimeout),
		FlushTimeout:   msOrDefault(p.FLUSHTIMEOUT, DefaultFlushTimeout),
	}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func msOrDefault(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// CalibrationTargets returns the three fixed target locations for a screen.
func CalibrationTargets(s models.Screen) [3]Target {
	return [3]Target{
		{X: s.Width / 4, Y: s.Height / 2},
		{X: s.Width / 2, Y: s.Height / 4},
		{X: (3 * s.Width) / 4, Y: (3 * s.Height) / 4},
	}
}

// scaleTarget maps a screen location into the raw reporting span.
func scaleTarget(t Target, s models.Screen, r models.Range) (x, y uint32) {
	if s.Width > 0 {
		x = uint32(int64(t.X) * int64(r.XSpan()) / int64(s.Width))
	}
	if s.Height > 0 {
		y = uint32(int64(t.Y) * int64(r.YSpan()) / int64(s.Height))
	}
	return x, y
}

// Run drives up to Attempts acquire/solve/confirm cycles. It returns
// ErrNotConfirmed when every attempt ended unconfirmed and ErrNoInput when
// the controller stayed silent from the start of the run until the first
// acquisition timed out.
func (c *Calibrator) Run() (Result, error) {
	if c.Log == nil {
		c.Log = log.NewEntry(log.StandardLogger())
	}
	if c.Solve == nil {
		c.Solve = matrix.FiveWire
	}
	attempts := orDefault(c.Attempts, DefaultAttempts)
	c.seen = false
	defer c.Display.Clear()

	var res Result
	for attempt := 1; attempt <= attempts; attempt++ {
		res.Attempts = attempt
		coeffs, points, err := c.acquire(attempt)
		if err != nil {
			return res, err
		}
		res.Coefficients, res.Points = coeffs, points
		c.Log.Info("Calibration done!!")

		state, sweep, err := c.confirm(attempt, coeffs)
		if sweep != nil {
			res.Sweep = sweep
		}
		if err != nil {
			return res, err
		}
		c.emit(Progress{State: state, Attempt: attempt})
		if state == StateDone {
			res.Confirmed = true
			return res, nil
		}
		c.Log.WithField("attempt", attempt).Warn("Calibration settings not confirmed")
	}
	c.apply(models.Disabled())
	return res, ErrNotConfirmed
}

// acquire collects three points and solves them, repeating the whole round
// until the solve succeeds.
func (c *Calibrator) acquire(attempt int) (models.Coefficients, [3]models.CalibrationPoint, error) {
	screen := c.Display.Screen()
	c.Display.Clear()
	for round := 1; ; round++ {
		c.apply(models.Disabled())
		targets := CalibrationTargets(screen)
		var points [3]models.CalibrationPoint
		for k, t := range targets {
			c.emit(Progress{
				State:   StateAcquiring,
				Attempt: attempt,
				Point:   k,
				Total:   len(targets),
				Target:  t,
				Title:   "Touchscreen Calibration",
			})
			if err := c.flush(); err != nil {
				return models.Unsolved(), points, err
			}
			c.Display.DrawCross(t.X, t.Y, ColorWhite)
			est, err := ReadGesture(c.Input, c.timeout(c.AcquireTimeout, DefaultAcquireTimeout), !c.seen, c.observe)
			c.Display.DrawCross(t.X, t.Y, ColorBlack)
			if err != nil {
				if errors.Is(err, ErrNoInput) {
					c.Log.Error("idle waiting for touch screen")
				}
				return models.Unsolved(), points, err
			}
			c.Log.WithFields(log.Fields{"point": k, "i": est.I, "j": est.J}).Debug("sample")
			x, y := scaleTarget(t, screen, c.Range)
			points[k] = models.CalibrationPoint{X: x, Y: y, I: est.I, J: est.J}
		}

		c.emit(Progress{State: StateSolving, Attempt: attempt})
		coeffs, err := c.solve(points)
		if err == nil {
			return coeffs, points, nil
		}
		c.Log.WithError(err).WithField("round", round).Warn("calibration failure")
	}
}

// solve runs the configured solver and, on success, pushes the result to the
// live sink after a reset.
func (c *Calibrator) solve(points [3]models.CalibrationPoint) (models.Coefficients, error) {
	coeffs, err := c.Solve(points)
	if err != nil {
		return models.Unsolved(), err
	}
	c.Log.Infof("calibration: %d:%d.%d.%d %d:%d.%d.%d %d:%d.%d.%d %d %d",
		points[0].X, points[0].Y, points[0].I, points[0].J,
		points[1].X, points[1].Y, points[1].I, points[1].J,
		points[2].X, points[2].Y, points[2].I, points[2].J,
		c.Range.XSpan()+1, c.Range.YSpan()+1)
	c.apply(models.Disabled())
	c.apply(coeffs)
	return coeffs, nil
}

// apply writes to the live sink. The sink is best effort: a failed write is
// logged and the run continues.
func (c *Calibrator) apply(coeffs models.Coefficients) {
	if err := c.Sink.Apply(coeffs); err != nil {
		c.Log.WithError(err).Error("cannot write driver parameters")
	}
}

func (c *Calibrator) flush() error {
	return Flush(c.Input, c.timeout(c.FlushTimeout, DefaultFlushTimeout))
}

func (c *Calibrator) timeout(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (c *Calibrator) observe(ev Event) {
	c.seen = true
	if c.OnEvent != nil {
		c.OnEvent(ev)
	}
}

func (c *Calibrator) emit(p Progress) {
	if c.OnProgress != nil {
		c.OnProgress(p)
	}
}
