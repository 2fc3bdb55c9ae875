package modern

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xianyo/tscalibrator/models"
)

// SysfsSink writes coefficients to the touch driver's module parameter.
type SysfsSink struct {
	Path string
}

// NewSysfsSink returns the sink for <root>/<device>/parameters/calibration.
func NewSysfsSink(root, device string) (*SysfsSink, error) {
	if strings.TrimSpace(device) == "" {
		return nil, fmt.Errorf("device name empty")
	}
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &SysfsSink{Path: filepath.Join(root, device, "parameters", "calibration")}, nil
}

// Apply writes "c0,c1,c2,c3,c4,c5,c6". The parameter file already exists;
// it is never created here.
func (s *SysfsSink) Apply(c models.Coefficients) error {
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open driver parameters %s: %w", s.Path, err)
	}
	if _, err := f.WriteString(c.String()); err != nil {
		f.Close()
		return fmt.Errorf("write driver parameters %s: %w", s.Path, err)
	}
	return f.Close()
}

// Disable writes the all-zero transform.
func (s *SysfsSink) Disable() error { return s.Apply(models.Disabled()) }

// Current reads back what the driver holds.
func (s *SysfsSink) Current() (models.Coefficients, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return models.Coefficients{}, err
	}
	return ParseCoefficients(string(b))
}
