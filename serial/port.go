package serial

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tarm/serial"

	"github.com/xianyo/tscalibrator/models"
)

const (
	DefaultBaudRate = 9600

	// readSlice bounds each blocking read so polls can time out.
	readSlice = 50 * time.Millisecond
)

// IdentityCommand asks a MicroTouch controller for its identity.
var IdentityCommand = []byte{responseSOH, 'O', 'I', responseEnd}

func portConfig(name string, baud int, timeout time.Duration) *serial.Config {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Config{Name: name, Baud: baud, Parity: serial.ParityNone, Size: 8, StopBits: serial.Stop1, ReadTimeout: timeout}
}

// Open opens the configured port as a Touch source.
func Open(cfg *models.SERIAL) (*Touch, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing SERIAL section")
	}
	if cfg.PORT == "" {
		return nil, fmt.Errorf("serial port not set")
	}
	sp, err := serial.OpenPort(portConfig(cfg.PORT, cfg.BAUDRATE, readSlice))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.PORT, err)
	}
	r := models.Range{XMin: int32(cfg.XMIN), XMax: int32(cfg.XMAX), YMin: int32(cfg.YMIN), YMax: int32(cfg.YMAX)}
	if r.XMax == 0 && r.YMax == 0 {
		r.XMax, r.YMax = MaxCoordinate, MaxCoordinate
	}
	return NewTouch(sp, r), nil
}

// AutoDetectPort scans common tty paths for a controller answering the
// identity command.
func AutoDetectPort(cfg *models.SERIAL) string {
	baud := DefaultBaudRate
	if cfg != nil && cfg.BAUDRATE > 0 {
		baud = cfg.BAUDRATE
	}
	candidates := make([]string, 0, 32)
	for _, pat := range []string{"/dev/ttyUSB*", "/dev/ttyACM*", "/dev/ttyS*", "/dev/ttymxc*"} {
		matches, _ := filepath.Glob(pat)
		for _, m := range matches {
			if _, err := os.Stat(m); err == nil {
				candidates = append(candidates, m)
			}
		}
	}
	for _, portName := range candidates {
		if TestPort(portName, baud) {
			return portName
		}
	}
	return ""
}

// TestPort opens name and issues the identity command.
func TestPort(name string, baud int) bool {
	sp, err := serial.OpenPort(portConfig(name, baud, 300*time.Millisecond))
	if err != nil {
		return false
	}
	defer func() { _ = sp.Close() }()

	if _, err := sp.Write(IdentityCommand); err != nil {
		return false
	}
	var resp []byte
	buf := make([]byte, 32)
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) && len(resp) < 64 {
		n, _ := sp.Read(buf)
		resp = append(resp, buf[:n]...)
		if IsIdentityReply(resp) {
			return true
		}
		if n == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return false
}

// IsIdentityReply reports whether resp contains a complete <SOH>...<CR>
// response.
func IsIdentityReply(resp []byte) bool {
	start := bytes.IndexByte(resp, responseSOH)
	if start < 0 {
		return false
	}
	return bytes.IndexByte(resp[start+1:], responseEnd) > 0
}
