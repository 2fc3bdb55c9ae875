package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestQuitWhenIdle(t *testing.T) {
	_, cmd := update(t, model{status: statusIdle}, keyQ)
	if !isQuit(cmd) {
		t.Fatal("q while idle should quit")
	}
}

func TestQuitWaitsForRun(t *testing.T) {
	m, cmd := update(t, model{status: statusRunning}, keyQ)
	if isQuit(cmd) || !m.quitting {
		t.Fatalf("quit during a run must wait: quitting=%v", m.quitting)
	}
	m, cmd = update(t, m, doneMsg{})
	if !isQuit(cmd) || m.forced {
		t.Fatalf("finished run should complete the quit: forced=%v", m.forced)
	}
}

func TestQuitForced(t *testing.T) {
	m, _ := update(t, model{status: statusRunning}, keyCtrlC)
	m, cmd := update(t, m, keyCtrlC)
	if !isQuit(cmd) || !m.forced {
		t.Fatalf("second ctrl+c should force: forced=%v", m.forced)
	}
}
