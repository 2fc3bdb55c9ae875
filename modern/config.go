package modern

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/xianyo/tscalibrator/models"
	serialpkg "github.com/xianyo/tscalibrator/serial"
)

const (
	DefaultInputDir    = "/dev/input"
	DefaultFramebuffer = "/dev/graphics/fb0"
	DefaultConfFile    = "/data/system/calibration"
	DefaultSysfsRoot   = "/sys/module"
	DefaultLogFile     = "/data/ts.log"
	DefaultCmdline     = "/proc/cmdline"

	// CmdlineTag names the touch device on the kernel command line.
	CmdlineTag = "tsdev"
	// RunProperty gates unattended runs.
	RunProperty = "ro.calibration"
)

// DefaultParameters is the document used when no config file exists.
func DefaultParameters() *models.PARAMETERS {
	p := &models.PARAMETERS{}
	applyDefaults(p)
	return p
}

func applyDefaults(p *models.PARAMETERS) {
	if p.INPUT == "" {
		p.INPUT = models.InputEvdev
	}
	if p.INPUTDIR == "" {
		p.INPUTDIR = DefaultInputDir
	}
	if p.FRAMEBUFFER == "" {
		p.FRAMEBUFFER = DefaultFramebuffer
	}
	if p.CONFFILE == "" {
		p.CONFFILE = DefaultConfFile
	}
	if p.SYSFS == "" {
		p.SYSFS = DefaultSysfsRoot
	}
	if p.LOGFILE == "" {
		p.LOGFILE = DefaultLogFile
	}
	if p.SOLVER == "" {
		p.SOLVER = models.SolverFiveWire
	}
	p.ATTEMPTS = orDefault(p.ATTEMPTS, DefaultAttempts)
	p.ACQUIRETIMEOUT = orDefault(p.ACQUIRETIMEOUT, int(DefaultAcquireTimeout.Milliseconds()))
	p.TESTTIMEOUT = orDefault(p.TESTTIMEOUT, int(DefaultTestTimeout.Milliseconds()))
	p.FLUSHTIMEOUT = orDefault(p.FLUSHTIMEOUT, int(DefaultFlushTimeout.Milliseconds()))
	if p.SERIAL != nil {
		p.SERIAL.BAUDRATE = orDefault(p.SERIAL.BAUDRATE, serialpkg.DefaultBaudRate)
		if p.SERIAL.XMAX == 0 && p.SERIAL.YMAX == 0 {
			p.SERIAL.XMAX, p.SERIAL.YMAX = serialpkg.MaxCoordinate, serialpkg.MaxCoordinate
		}
	}
}

// LoadParameters reads the JSON document at path. An empty path or a missing
// file yields the defaults.
func LoadParameters(path string) (*models.PARAMETERS, error) {
	if path == "" {
		return DefaultParameters(), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultParameters(), nil
	}
	if err != nil {
		return nil, err
	}
	var p models.PARAMETERS
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&p)
	switch p.INPUT {
	case models.InputEvdev:
	case models.InputSerial:
		if p.SERIAL == nil {
			return nil, fmt.Errorf("missing SERIAL section in JSON")
		}
	default:
		return nil, fmt.Errorf("unknown INPUT %q", p.INPUT)
	}
	return &p, nil
}

func PersistParameters(path string, p *models.PARAMETERS) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureSerialPort auto-detects the serial port if missing and optionally
// persists it back into the config file.
func EnsureSerialPort(configPath string, p *models.PARAMETERS, persist bool) (changed bool, err error) {
	if p == nil || p.SERIAL == nil {
		return false, fmt.Errorf("missing SERIAL section")
	}
	if strings.TrimSpace(p.SERIAL.PORT) != "" {
		return false, nil
	}
	port := serialpkg.AutoDetectPort(p.SERIAL)
	if port == "" {
		return false, fmt.Errorf("could not auto-detect serial port")
	}
	p.SERIAL.PORT = port
	if persist && configPath != "" {
		if err := PersistParameters(configPath, p); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Device name sources, in priority order.
const (
	SourceArgument = "command-line"
	SourceCmdline  = "kernel command line"
	SourceConfig   = "config"
)

// ResolveDeviceName picks the touch device name: an explicit argument wins,
// then tsdev=<name> on the kernel command line, then the configured DEVICE.
func ResolveDeviceName(arg, cmdline, fallback string) (name, source string) {
	if arg != "" {
		return arg, SourceArgument
	}
	if v, ok := CmdlineValue(cmdline, CmdlineTag); ok && v != "" {
		return v, SourceCmdline
	}
	return fallback, SourceConfig
}

// CmdlineValue returns the value of key=value on a kernel command line.
func CmdlineValue(cmdline, key string) (string, bool) {
	for _, f := range strings.Fields(cmdline) {
		if v, ok := strings.CutPrefix(f, key+"="); ok {
			return v, true
		}
	}
	return "", false
}

// ReadCmdline returns the kernel command line, or "" if it cannot be read.
func ReadCmdline(path string) string {
	if path == "" {
		path = DefaultCmdline
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// ShouldRun decides whether the tool runs at all. Interactive runs and forced
// runs always proceed; unattended runs need the gate property set to "1".
func ShouldRun(force, interactive bool, getprop func(string) string) bool {
	if force || interactive {
		return true
	}
	if getprop == nil {
		return false
	}
	return strings.HasPrefix(getprop(RunProperty), "1")
}

// SystemProperty reads an Android system property through getprop. Missing
// tool or property yields "".
func SystemProperty(name string) string {
	out, err := exec.Command("getprop", name).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
