package modern

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xianyo/tscalibrator/models"
)

// ErrNoStoredCalibration means the durable store holds nothing.
var ErrNoStoredCalibration = errors.New("no stored calibration")

// FileStore keeps confirmed coefficients in a small text file, one integer
// per line.
type FileStore struct {
	Path string
}

// FormatStored renders c the way FileStore writes it: seven lines, no
// trailing newline.
func FormatStored(c models.Coefficients) string {
	return c.Join("\n")
}

// ParseCoefficients accepts exactly seven decimal integers separated by
// newlines, commas or other whitespace.
func ParseCoefficients(s string) (models.Coefficients, error) {
	var c models.Coefficients
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != len(c) {
		return c, fmt.Errorf("got %d values, want %d", len(fields), len(c))
	}
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return models.Coefficients{}, fmt.Errorf("value %d: %w", i, err)
		}
		c[i] = int32(v)
	}
	return c, nil
}

// Save replaces the stored value. The file is readable by its owner only.
func (s *FileStore) Save(c models.Coefficients) error {
	if err := os.WriteFile(s.Path, []byte(FormatStored(c)), 0600); err != nil {
		return fmt.Errorf("create %s: %w", s.Path, err)
	}
	return nil
}

// Load returns ErrNoStoredCalibration when the file does not exist, and a
// parse error when it exists but is malformed.
func (s *FileStore) Load() (models.Coefficients, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Coefficients{}, ErrNoStoredCalibration
	}
	if err != nil {
		return models.Coefficients{}, err
	}
	c, err := ParseCoefficients(string(b))
	if err != nil {
		return models.Coefficients{}, fmt.Errorf("failed to parse calibration file: %w", err)
	}
	return c, nil
}
