package modern

import (
	"errors"
	"testing"
	"time"

	"github.com/xianyo/tscalibrator/models"
)

var (
	vga      = models.Screen{Width: 640, Height: 480, BitsPerPixel: 16}
	rng10bit = models.Range{XMin: 0, XMax: 1023, YMin: 0, YMax: 1023}
)

// panel is a linear raw response to a screen location.
func panel(x, y int) (int32, int32) {
	return int32(100 + 3*x/2), int32(50 + 2*y)
}

// rawAt inverts the testing screen's raw-to-pixel mapping.
func rawAt(px, size int, span int32) int32 {
	return int32((int64(px)*int64(span) + int64(size) - 1) / int64(size))
}

// tapScreen is a release at screen (x, y) on the testing screen.
func tapScreen(x, y int) []Event {
	return tap(rawAt(x, vga.Width, rng10bit.XSpan()), rawAt(y, vga.Height, rng10bit.YSpan()))
}

func newTestCalibrator(src EventSource) (*Calibrator, *fakeDisplay, *fakeSink, *fakeStore) {
	d := &fakeDisplay{screen: vga}
	sink := &fakeSink{}
	store := &fakeStore{}
	c, err := NewCalibrator(DefaultParameters(), d, src, rng10bit, sink, store, nil)
	if err != nil {
		panic(err)
	}
	return c, d, sink, store
}

// acquisition queues the three calibration touches.
func acquisition(s *script) {
	for _, t := range CalibrationTargets(vga) {
		s.point(panel(t.X, t.Y))
	}
}

func TestCalibrationTargets(t *testing.T) {
	got := CalibrationTargets(vga)
	want := [3]Target{{160, 240}, {320, 120}, {480, 360}}
	if got != want {
		t.Errorf("targets %v, want %v", got, want)
	}
	x, y := scaleTarget(got[0], vga, rng10bit)
	if x != 160*1023/640 || y != 240*1023/480 {
		t.Errorf("scaled (%d,%d)", x, y)
	}
}

func TestNewCalibratorDefaults(t *testing.T) {
	c, _, _, _ := newTestCalibrator(&script{})
	if c.Attempts != 4 || c.AcquireTimeout != 10*time.Second || c.TestTimeout != 5*time.Second || c.FlushTimeout != 100*time.Millisecond {
		t.Errorf("defaults %+v", c)
	}
	p := DefaultParameters()
	p.SOLVER = "gauss"
	if _, err := NewCalibrator(p, &fakeDisplay{}, &script{}, rng10bit, &fakeSink{}, &fakeStore{}, nil); err == nil {
		t.Error("unknown solver accepted")
	}
}

func TestRunConfirmed(t *testing.T) {
	src := &script{}
	acquisition(src)
	src.push(
		tapScreen(20, 20),   // outside both buttons
		tapScreen(150, 230), // confirm
	)
	c, d, sink, store := newTestCalibrator(src)
	var states []State
	c.OnProgress = func(p Progress) { states = append(states, p.State) }

	res, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Confirmed || res.Attempts != 1 {
		t.Fatalf("result %+v", res)
	}
	if len(store.saved) != 1 || store.saved[0] != res.Coefficients {
		t.Fatalf("store %v, coefficients %v", store.saved, res.Coefficients)
	}
	if sink.last() != res.Coefficients {
		t.Errorf("live sink holds %v", sink.last())
	}
	// round start disable, pre-apply disable, coefficients
	if len(sink.applied) != 3 || !sink.applied[0].IsDisabled() || !sink.applied[1].IsDisabled() {
		t.Errorf("sink sequence %v", sink.applied)
	}
	for k, p := range res.Points {
		x, y := res.Coefficients.Translate(p.I, p.J)
		if diff(x, p.X) > 1 || diff(y, p.Y) > 1 {
			t.Errorf("point %d: (%d,%d) -> (%d,%d)", k, p.I, p.J, x, y)
		}
	}
	if len(d.crossesOf(ColorWhite)) != 3 || len(d.crossesOf(ColorBlack)) != 3 {
		t.Errorf("target crosses %v", d.crosses)
	}
	if len(d.crossesOf(ColorBlue)) != 1 {
		t.Errorf("out-of-range touch not acknowledged: %v", d.crosses)
	}
	if len(d.boxes) != 2 || d.boxes[0][4] != int(ColorGreen) || d.boxes[1][4] != int(ColorRed) {
		t.Errorf("boxes %v", d.boxes)
	}
	want := []State{StateAcquiring, StateAcquiring, StateAcquiring, StateSolving, StateTesting, StateDone}
	if len(states) != len(want) {
		t.Fatalf("states %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state %d = %s, want %s", i, states[i], want[i])
		}
	}
}

func diff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestRunNeverConfirmed(t *testing.T) {
	src := &script{}
	for i := 0; i < DefaultAttempts; i++ {
		acquisition(src)
		src.push(nil) // testing screen times out
	}
	c, _, sink, store := newTestCalibrator(src)

	res, err := c.Run()
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("got %v, want ErrNotConfirmed", err)
	}
	if res.Confirmed || res.Attempts != DefaultAttempts {
		t.Errorf("result %+v", res)
	}
	if len(store.saved) != 0 {
		t.Errorf("durable write happened: %v", store.saved)
	}
	if !sink.last().IsDisabled() {
		t.Errorf("live sink left at %v", sink.last())
	}
}

func TestRunRetriesDegenerateRound(t *testing.T) {
	src := &script{}
	for range 3 {
		src.point(500, 500) // identical readings
	}
	acquisition(src)
	src.push(tapScreen(150, 230))
	c, _, sink, _ := newTestCalibrator(src)

	res, err := c.Run()
	if err != nil || !res.Confirmed {
		t.Fatalf("res %+v err %v", res, err)
	}
	if res.Attempts != 1 {
		t.Errorf("degenerate round counted as an attempt: %d", res.Attempts)
	}
	if len(sink.applied) != 4 {
		t.Errorf("sink sequence %v", sink.applied)
	}
}

func TestRunNoInput(t *testing.T) {
	c, _, _, store := newTestCalibrator(&script{})
	_, err := c.Run()
	if !errors.Is(err, ErrNoInput) {
		t.Fatalf("got %v, want ErrNoInput", err)
	}
	if len(store.saved) != 0 {
		t.Error("store written")
	}
}

func TestRunIdlePauseAfterInput(t *testing.T) {
	targets := CalibrationTargets(vga)
	src := &script{}
	src.point(panel(targets[0].X, targets[0].Y))
	src.push(nil, nil, nil) // flush, then two idle waits before the touch
	src.push(tap(panel(targets[1].X, targets[1].Y)))
	src.point(panel(targets[2].X, targets[2].Y))
	src.push(tapScreen(150, 230))
	c, _, _, store := newTestCalibrator(src)

	res, err := c.Run()
	if err != nil || !res.Confirmed {
		t.Fatalf("res %+v err %v", res, err)
	}
	if len(store.saved) != 1 {
		t.Errorf("store %v", store.saved)
	}
}

func TestRunIdleAfterSweep(t *testing.T) {
	src := sweepRun(1)
	src.push(nil, nil) // second grid point times out
	src.push(nil)      // idle wait at the first target of the next attempt
	acquisition(src)
	src.push(tapScreen(150, 230))
	c, _, _, _ := newTestCalibrator(src)

	res, err := c.Run()
	if err != nil || !res.Confirmed || res.Attempts != 2 {
		t.Fatalf("res %+v err %v", res, err)
	}
}

func TestRunSaveError(t *testing.T) {
	src := &script{}
	acquisition(src)
	src.push(tapScreen(150, 230))
	c, _, _, store := newTestCalibrator(src)
	store.err = errors.New("read-only")
	if _, err := c.Run(); err == nil || errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("got %v", err)
	}
}

func TestRunSinkErrorIsNotFatal(t *testing.T) {
	src := &script{}
	acquisition(src)
	src.push(tapScreen(150, 230))
	c, _, sink, _ := newTestCalibrator(src)
	sink.err = errors.New("no such driver")
	if res, err := c.Run(); err != nil || !res.Confirmed {
		t.Fatalf("res %+v err %v", res, err)
	}
}
