// Package ui holds the console-facing pieces: status text on the system
// console, colored CLI output and logger construction.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/xianyo/tscalibrator/modern"
)

const (
	csi         = "\x1b["
	clearScreen = csi + "2J"
	hideCursor  = csi + "?25l"
	showCursor  = csi + "?25h"

	DefaultConsole = "/dev/tty0"
)

// TTY writes positioned status text to a console. A TTY without a writer
// discards everything.
type TTY struct {
	w     io.Writer
	c     io.Closer
	title lipgloss.Style
	sub   lipgloss.Style
}

// NewTTY opens path for writing. If it cannot be opened the returned TTY is
// silent and err says why.
func NewTTY(path string) (*TTY, error) {
	if path == "" {
		path = DefaultConsole
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return &TTY{}, err
	}
	t := NewTTYWriter(f)
	t.c = f
	return t, nil
}

// NewTTYWriter wraps any writer.
func NewTTYWriter(w io.Writer) *TTY {
	r := lipgloss.NewRenderer(w)
	return &TTY{
		w:     w,
		title: r.NewStyle().Bold(true),
		sub:   r.NewStyle().Faint(true),
	}
}

// At writes at column x, row y (1-based).
func (t *TTY) At(x, y int, format string, a ...any) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "%s%d;%dH", csi, y, x)
	fmt.Fprintf(t.w, format, a...)
}

func (t *TTY) Clear() {
	if t == nil || t.w == nil {
		return
	}
	io.WriteString(t.w, clearScreen+hideCursor)
}

func (t *TTY) Title(s string) {
	if t == nil || t.w == nil {
		return
	}
	t.At(10, 12, "%s", t.title.Render(s))
}

func (t *TTY) Subtitle(s string) {
	if t == nil || t.w == nil {
		return
	}
	t.At(10, 13, "%s", t.sub.Render(s))
}

// Progress mirrors a calibration step on the console.
func (t *TTY) Progress(p modern.Progress) {
	switch p.State {
	case modern.StateAcquiring, modern.StateSweeping:
		if p.Point == 0 && p.Title != "" {
			t.Clear()
		}
		if p.Title != "" {
			t.Title(p.Title)
		}
		t.At(1, 1, "%5d:%5d", p.Target.X, p.Target.Y)
	case modern.StateTesting:
		t.Clear()
		t.Title(p.Title)
		t.Subtitle(p.Subtitle)
	}
}

// Event shows the latest raw axis reading.
func (t *TTY) Event(ev modern.Event) {
	switch ev.Kind {
	case modern.EventAxisX:
		t.At(1, 2, "%5d", ev.Value)
	case modern.EventAxisY:
		t.At(1, 3, "%5d", ev.Value)
	}
}

// Close restores the cursor and closes the console.
func (t *TTY) Close() error {
	if t == nil || t.w == nil {
		return nil
	}
	io.WriteString(t.w, showCursor)
	if t.c != nil {
		return t.c.Close()
	}
	return nil
}
