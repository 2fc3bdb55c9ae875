package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/xianyo/tscalibrator/models"
	"github.com/xianyo/tscalibrator/modern"
	"github.com/xianyo/tscalibrator/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "parameters json (defaults apply when missing)")
		force      = flag.Bool("force", false, "run even when not gated in and ignore any stored calibration")
		reset      = flag.Bool("reset", false, "disable the live calibration and remove the stored one")
		solver     = flag.String("solver", "", "fivewire or lu (overrides SOLVER)")
		console    = flag.String("console", ui.DefaultConsole, "console for status text")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [device]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if !modern.ShouldRun(*force, ui.IsTerminal(os.Stdin), modern.SystemProperty) {
		return 0
	}

	p, err := modern.LoadParameters(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if *solver != "" {
		p.SOLVER = *solver
	}

	logger, closer, err := ui.NewLogger(p.LOGFILE, p.DEBUG)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: cannot open log:", err)
	}
	defer closer.Close()
	entry := logger.WithField("component", "tscalibrator")
	entry.Info("log opened")

	device, source := modern.ResolveDeviceName(flag.Arg(0), modern.ReadCmdline(""), p.DEVICE)
	if device == "" {
		entry.Error("calibration device not specified")
		return 1
	}
	entry.Infof("using device <%s> from %s", device, source)

	sink, err := modern.NewSysfsSink(p.SYSFS, device)
	if err != nil {
		entry.WithError(err).Error("no driver sink")
		return 1
	}
	store := &modern.FileStore{Path: p.CONFFILE}

	if *reset {
		if err := sink.Disable(); err != nil {
			entry.WithError(err).Error("cannot disable calibration")
		}
		if err := os.Remove(store.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			entry.WithError(err).Error("cannot remove stored calibration")
			return 1
		}
		entry.Info("calibration reset")
		return 0
	}

	if !*force {
		applied, err := modern.ApplyStored(store, sink, entry)
		if err != nil {
			entry.WithError(err).Error("cannot apply stored calibration")
			return 1
		}
		if applied {
			return 0
		}
	}

	if p.INPUT == models.InputSerial {
		if _, err := modern.EnsureSerialPort(*configPath, p, false); err != nil {
			entry.WithError(err).Error("no serial touch controller")
			return 1
		}
	}

	sess, err := modern.Open(p, device, sink, store, entry)
	if err != nil {
		entry.WithError(err).Error("cannot open devices")
		return 1
	}
	defer sess.Close()

	tty, err := ui.NewTTY(*console)
	if err != nil {
		entry.WithError(err).Debug("no console for status text")
	}
	defer tty.Close()

	cal, err := sess.Calibrator()
	if err != nil {
		entry.WithError(err).Error("cannot start calibration")
		return 1
	}
	cal.OnProgress = tty.Progress
	cal.OnEvent = tty.Event

	res, err := cal.Run()
	switch {
	case err == nil:
		entry.WithField("calibration", res.Coefficients.String()).Info("calibration stored")
		return 0
	case errors.Is(err, modern.ErrNotConfirmed):
		entry.WithField("attempts", res.Attempts).Warn("calibration disabled")
		return 0
	default:
		entry.WithError(err).Error("calibration aborted")
		return 1
	}
}
