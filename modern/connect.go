package modern

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xianyo/tscalibrator/evdev"
	"github.com/xianyo/tscalibrator/fbdev"
	"github.com/xianyo/tscalibrator/models"
	serialpkg "github.com/xianyo/tscalibrator/serial"
)

// InputDevice is an EventSource that holds an open handle.
type InputDevice interface {
	EventSource
	Close() error
}

// Loader reads a stored calibration.
type Loader interface {
	Load() (models.Coefficients, error)
}

// Session holds every device a calibration run needs.
type Session struct {
	Params  *models.PARAMETERS
	Device  string
	Display *fbdev.Framebuffer
	Input   InputDevice
	Range   models.Range
	Sink    DriverSink
	Store   Store
	Log     *log.Entry
}

// Open maps the framebuffer and opens the touch input named device. On
// failure everything already acquired is released.
func Open(p *models.PARAMETERS, device string, sink DriverSink, store Store, logger *log.Entry) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("parameters nil")
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	fb, err := fbdev.Open(p.FRAMEBUFFER)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p.FRAMEBUFFER, err)
	}
	scr := fb.Screen()
	logger.Infof("Screen resolution: %dx%d", scr.Width, scr.Height)

	s := &Session{Params: p, Device: device, Display: fb, Sink: sink, Store: store, Log: logger}
	switch p.INPUT {
	case models.InputSerial:
		t, err := serialpkg.Open(p.SERIAL)
		if err != nil {
			fb.Close()
			return nil, err
		}
		s.Input, s.Range = t, t.Range()
		logger.WithField("port", p.SERIAL.PORT).Info("serial touch controller opened")
	default:
		dev, err := evdev.Find(p.INPUTDIR, device, logger.WithField("component", "evdev"))
		if err != nil {
			fb.Close()
			return nil, err
		}
		r, err := dev.AbsRange()
		if err != nil {
			dev.Close()
			fb.Close()
			return nil, err
		}
		s.Input, s.Range = dev, r
	}
	logger.Infof("x range is [0x%x..0x%x]", s.Range.XMin, s.Range.XMax)
	logger.Infof("y range is [0x%x..0x%x]", s.Range.YMin, s.Range.YMax)
	return s, nil
}

// Calibrator builds a Calibrator over the session's devices.
func (s *Session) Calibrator() (*Calibrator, error) {
	return NewCalibrator(s.Params, s.Display, s.Input, s.Range, s.Sink, s.Store, s.Log)
}

// Close releases the input device then the framebuffer.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.Input != nil {
		errs = append(errs, s.Input.Close())
		s.Input = nil
	}
	if s.Display != nil {
		errs = append(errs, s.Display.Close())
		s.Display = nil
	}
	return errors.Join(errs...)
}

// ApplyStored re-applies a stored calibration to the live sink. It returns
// false, without error, when nothing usable is stored.
func ApplyStored(store Loader, sink DriverSink, logger *log.Entry) (bool, error) {
	c, err := store.Load()
	if errors.Is(err, ErrNoStoredCalibration) {
		return false, nil
	}
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("stored calibration ignored")
		}
		return false, nil
	}
	if err := sink.Apply(c); err != nil {
		return false, err
	}
	if logger != nil {
		logger.WithField("calibration", c.String()).Info("stored calibration applied")
	}
	return true, nil
}
