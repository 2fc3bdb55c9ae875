package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/xianyo/tscalibrator/models"
	"github.com/xianyo/tscalibrator/modern"
	"github.com/xianyo/tscalibrator/ui"
)

type modeStatus int

const (
	statusIdle modeStatus = iota
	statusRunning
	statusDone
	statusError
)

const maxLogLines = 8

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// bridge lets session callbacks reach the program once it exists.
type bridge struct {
	p *tea.Program
}

func (b *bridge) send(msg tea.Msg) {
	if b != nil && b.p != nil {
		b.p.Send(msg)
	}
}

// logHook mirrors log entries into the TUI.
type logHook struct{ br *bridge }

func (h logHook) Levels() []log.Level { return log.AllLevels }

func (h logHook) Fire(e *log.Entry) error {
	h.br.send(logMsg{level: e.Level, line: e.Message})
	return nil
}

type progressMsg modern.Progress
type rawMsg modern.Event
type logMsg struct {
	level log.Level
	line  string
}
type doneMsg struct {
	res modern.Result
	err error
}
type infoMsg struct{ s string }

type model struct {
	sess  *modern.Session
	sink  *modern.SysfsSink
	store *modern.FileStore
	br    *bridge

	status   modeStatus
	prog     modern.Progress
	rawX     int32
	rawY     int32
	lines    []logMsg
	result   *modern.Result
	lastErr  error
	infoLine string
	quitting bool // quit requested while a run is active
	forced   bool // quit without waiting for the run

	spin spinner.Model
	bar  progress.Model
}

func initialModel(sess *modern.Session, sink *modern.SysfsSink, store *modern.FileStore, br *bridge) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := model{
		sess:  sess,
		sink:  sink,
		store: store,
		br:    br,
		spin:  sp,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
	}
	if c, err := sink.Current(); err == nil {
		m.infoLine = "Live calibration: " + c.String()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.status != statusRunning {
				return m, tea.Quit
			}
			if m.quitting && msg.String() == "ctrl+c" {
				m.forced = true
				return m, tea.Quit
			}
			m.quitting = true
			return m, nil
		case "enter":
			if m.status == statusRunning {
				return m, nil
			}
			m.status = statusRunning
			m.result, m.lastErr = nil, nil
			return m, tea.Batch(m.runCmd(), m.bar.SetPercent(0))
		case "r":
			if m.status == statusRunning {
				return m, nil
			}
			return m, m.resetCmd()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, 60)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd

	case progressMsg:
		m.prog = modern.Progress(msg)
		if m.prog.State == modern.StateSweeping && m.prog.Total > 0 {
			return m, m.bar.SetPercent(float64(m.prog.Point) / float64(m.prog.Total))
		}
		return m, nil

	case rawMsg:
		switch msg.Kind {
		case modern.EventAxisX:
			m.rawX = msg.Value
		case modern.EventAxisY:
			m.rawY = msg.Value
		}
		return m, nil

	case logMsg:
		m.lines = append(m.lines, msg)
		if len(m.lines) > maxLogLines {
			m.lines = m.lines[len(m.lines)-maxLogLines:]
		}
		return m, nil

	case infoMsg:
		m.infoLine = msg.s
		return m, nil

	case doneMsg:
		if m.quitting {
			m.status = statusIdle
			return m, tea.Quit
		}
		m.result = &msg.res
		m.lastErr = msg.err
		if msg.err == nil {
			m.status = statusDone
			m.infoLine = "Live calibration: " + msg.res.Coefficients.String()
		} else {
			m.status = statusError
		}
		return m, nil
	}
	return m, nil
}

func (m model) runCmd() tea.Cmd {
	sess, br := m.sess, m.br
	return func() tea.Msg {
		cal, err := sess.Calibrator()
		if err != nil {
			return doneMsg{err: err}
		}
		cal.OnProgress = func(p modern.Progress) { br.send(progressMsg(p)) }
		cal.OnEvent = func(ev modern.Event) {
			if ev.Kind == modern.EventAxisX || ev.Kind == modern.EventAxisY {
				br.send(rawMsg(ev))
			}
		}
		res, err := cal.Run()
		return doneMsg{res: res, err: err}
	}
}

func (m model) resetCmd() tea.Cmd {
	sink := m.sink
	return func() tea.Msg {
		if err := sink.Disable(); err != nil {
			return infoMsg{s: "Disable failed: " + err.Error()}
		}
		return infoMsg{s: "Live calibration: disabled"}
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Touchscreen Calibration") + "  " + helpStyle.Render(m.sess.Device) + "\n\n")
	if m.infoLine != "" {
		b.WriteString(m.infoLine + "\n\n")
	}

	switch m.status {
	case statusIdle:
		b.WriteString("Press Enter to calibrate. The targets appear on the panel.\n")
	case statusRunning:
		b.WriteString(m.viewRunning())
	case statusDone:
		b.WriteString(okStyle.Render(fmt.Sprintf("Calibration confirmed after %d attempt(s)", m.result.Attempts)) + "\n")
	case statusError:
		b.WriteString(errStyle.Render("Error: "+m.lastErr.Error()) + "\n")
	}
	if m.result != nil && m.result.Sweep != nil {
		sw := m.result.Sweep
		line := fmt.Sprintf("Last 64-point test: %d points", len(sw.Samples))
		if sw.Fit != nil {
			line += fmt.Sprintf(", rms %.2f, best fit rms %.2f", sw.RMS, sw.Fit.RMS)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("\nraw X %5d  Y %5d\n\n", m.rawX, m.rawY))

	for _, l := range m.lines {
		style := helpStyle
		switch {
		case l.level <= log.ErrorLevel:
			style = errStyle
		case l.level == log.WarnLevel:
			style = warnStyle
		}
		b.WriteString(style.Render(l.line) + "\n")
	}
	if m.quitting {
		b.WriteString("\n" + warnStyle.Render("Quitting once the current calibration finishes (ctrl+c again to force)") + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter: calibrate  r: disable calibration  q: quit") + "\n")
	return b.String()
}

func (m model) viewRunning() string {
	p := m.prog
	attempt := fmt.Sprintf("Attempt %d", p.Attempt)
	switch p.State {
	case modern.StateAcquiring:
		return fmt.Sprintf("%s %s: touch target %d/%d at %d:%d\n", m.spin.View(), attempt, p.Point+1, p.Total, p.Target.X, p.Target.Y)
	case modern.StateSolving:
		return m.spin.View() + " Solving...\n"
	case modern.StateTesting:
		return fmt.Sprintf("%s %s: %s, or %s\n", m.spin.View(), attempt, p.Title, strings.ToLower(p.Subtitle))
	case modern.StateSweeping:
		return fmt.Sprintf("64-point test %d/%d\n%s\n", p.Point+1, p.Total, m.bar.View())
	}
	return m.spin.View() + " Starting...\n"
}

func main() {
	var (
		configPath = flag.String("config", "", "parameters json (defaults apply when missing)")
		device     = flag.String("device", "", "touch device name (overrides tsdev= and DEVICE)")
	)
	flag.Parse()

	p, err := modern.LoadParameters(*configPath)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	logger, closer, err := ui.NewFileLogger(p.LOGFILE, p.DEBUG)
	if err != nil {
		fmt.Println("warning: cannot open log:", err)
	}
	defer closer.Close()
	br := &bridge{}
	logger.AddHook(logHook{br: br})
	entry := logger.WithField("component", "tsui")

	name, _ := modern.ResolveDeviceName(*device, modern.ReadCmdline(""), p.DEVICE)
	if name == "" {
		fmt.Println("error: calibration device not specified")
		os.Exit(1)
	}
	if p.INPUT == models.InputSerial {
		if changed, err := modern.EnsureSerialPort(*configPath, p, true); err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		} else if changed {
			entry.WithField("port", p.SERIAL.PORT).Info("serial port detected")
		}
	}

	sink, err := modern.NewSysfsSink(p.SYSFS, name)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	store := &modern.FileStore{Path: p.CONFFILE}
	sess, err := modern.Open(p, name, sink, store, entry)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	prog := tea.NewProgram(initialModel(sess, sink, store, br), tea.WithAltScreen())
	br.p = prog
	final, err := prog.Run()
	if fm, ok := final.(model); ok && fm.forced {
		// the run still owns the framebuffer mapping; process exit releases it
		entry.Warn("quit during calibration, devices left open")
	} else {
		sess.Close()
	}
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
