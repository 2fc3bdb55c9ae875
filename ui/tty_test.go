package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xianyo/tscalibrator/modern"
)

func TestTTYPositions(t *testing.T) {
	var buf bytes.Buffer
	tty := NewTTYWriter(&buf)
	tty.Event(modern.Event{Kind: modern.EventAxisX, Value: 42})
	tty.Event(modern.Event{Kind: modern.EventAxisY, Value: 7})
	tty.Event(modern.Event{Kind: modern.EventSync})
	want := "\x1b[2;1H   42\x1b[3;1H    7"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTTYTitle(t *testing.T) {
	var buf bytes.Buffer
	tty := NewTTYWriter(&buf)
	tty.Progress(modern.Progress{State: modern.StateTesting, Title: "confirm", Subtitle: "sweep"})
	out := buf.String()
	for _, part := range []string{clearScreen, "\x1b[12;10H", "confirm", "\x1b[13;10H", "sweep"} {
		if !strings.Contains(out, part) {
			t.Errorf("output %q lacks %q", out, part)
		}
	}
}

func TestSilentTTY(t *testing.T) {
	var tty *TTY
	tty.Title("x")
	tty.Clear()
	if err := tty.Close(); err != nil {
		t.Fatal(err)
	}
	(&TTY{}).Subtitle("y")
}
