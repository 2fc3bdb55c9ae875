package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger logs to stdout when it is a terminal, otherwise to path which is
// truncated on open.
func NewLogger(path string, debug bool) (*log.Logger, io.Closer, error) {
	l := log.New()
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	if IsTerminal(os.Stdout) {
		l.SetOutput(os.Stdout)
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		return l, nopCloser{}, nil
	}
	return fileLogger(l, path)
}

// NewFileLogger always logs to path, for front ends that own the terminal.
func NewFileLogger(path string, debug bool) (*log.Logger, io.Closer, error) {
	l := log.New()
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return fileLogger(l, path)
}

func fileLogger(l *log.Logger, path string) (*log.Logger, io.Closer, error) {
	l.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		l.SetOutput(io.Discard)
		return l, nopCloser{}, err
	}
	l.SetOutput(f)
	return l, f, nil
}
