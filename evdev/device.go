package evdev

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/xianyo/tscalibrator/models"
)

// ErrNotFound means no event node carries the requested name.
var ErrNotFound = errors.New("can not find ts device")

// maxRead is the number of records read per poll.
const maxRead = 64

// Device is an open event node.
type Device struct {
	Path string
	name string
	fd   int
	buf  []byte
}

// Open opens one event node without checking its name.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	name, err := getName(fd)
	if err != nil {
		name = "Unknown"
	}
	return &Device{Path: path, name: name, fd: fd, buf: make([]byte, maxRead*EventSize)}, nil
}

// Find walks dir/event0, dir/event1, ... and returns the first node whose
// name starts with prefix. The walk stops at the first missing node.
func Find(dir, prefix string, logger *log.Entry) (*Device, error) {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	for i := 0; ; i++ {
		path := filepath.Join(dir, fmt.Sprintf("event%d", i))
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w named %q under %s", ErrNotFound, prefix, dir)
		}
		dev, err := Open(path)
		if err != nil {
			logger.WithError(err).Warn("skipping input node")
			continue
		}
		logger.Debugf("%s: get name: %s", path, dev.Name())
		if strings.HasPrefix(dev.Name(), prefix) {
			logger.WithFields(log.Fields{"path": path, "name": dev.Name()}).Info("touch device found")
			return dev, nil
		}
		logger.Debugf("%s: not %s", path, prefix)
		dev.Close()
	}
}

func (d *Device) Name() string { return d.name }

// AbsRange queries the reporting range of ABS_X and ABS_Y.
func (d *Device) AbsRange() (models.Range, error) {
	x, err := getAbsInfo(d.fd, ABS_X)
	if err != nil {
		return models.Range{}, fmt.Errorf("reading ABS_X: %w", err)
	}
	y, err := getAbsInfo(d.fd, ABS_Y)
	if err != nil {
		return models.Range{}, fmt.Errorf("reading ABS_Y: %w", err)
	}
	return models.Range{XMin: x.Min, XMax: x.Max, YMin: y.Min, YMax: y.Max}, nil
}

// PollEvents waits up to timeout for input the filter cares about. An empty
// result means the whole timeout passed: signals, EAGAIN and reads holding
// only ignored records keep waiting on the remaining time.
func (d *Device) PollEvents(timeout time.Duration) ([]models.Event, error) {
	deadline := time.Now().Add(timeout)
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN | unix.POLLERR}}
	for {
		fds[0].Revents = 0
		n, err := unix.Poll(fds, remainingMillis(deadline))
		switch {
		case errors.Is(err, unix.EINTR):
		case err != nil:
			return nil, fmt.Errorf("poll %s: %w", d.Path, err)
		case n == 0:
			return nil, nil
		default:
			if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 && fds[0].Revents&unix.POLLIN == 0 {
				return nil, fmt.Errorf("poll %s: device gone", d.Path)
			}
			nr, err := unix.Read(d.fd, d.buf)
			if err != nil && !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
				return nil, fmt.Errorf("read %s: %w", d.Path, err)
			}
			if err == nil && nr == 0 {
				return nil, fmt.Errorf("read %s: device gone", d.Path)
			}
			if nr > 0 {
				if evs := Decode(d.buf[:nr]); len(evs) > 0 {
					return evs, nil
				}
			}
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
	}
}

// remainingMillis rounds the time left up to whole milliseconds so poll
// never wakes before the deadline.
func remainingMillis(deadline time.Time) int {
	left := time.Until(deadline)
	if left <= 0 {
		return 0
	}
	return int((left + time.Millisecond - 1) / time.Millisecond)
}

func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
