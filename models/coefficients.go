package models

import (
	"fmt"
	"strings"
)

// FixedDivisor is the fixed-point scale carried in c6.
const FixedDivisor = 65536

// Coefficients is the 7-element fixed-point affine transform:
//
//	x = (c0*i + c1*j + c2) / c6
//	y = (c3*i + c4*j + c5) / c6
type Coefficients [7]int32

// Unsolved is the value a failed solve leaves behind: only the divisor is set.
func Unsolved() Coefficients {
	var c Coefficients
	c[6] = FixedDivisor
	return c
}

// Disabled is the all-zero vector the driver treats as "no calibration".
func Disabled() Coefficients {
	return Coefficients{}
}

// IsDisabled reports whether c is the all-zero vector.
func (c Coefficients) IsDisabled() bool {
	return c == Coefficients{}
}

// Translate applies the forward transform. Negative intermediate sums are
// clamped to zero before the division. A zero divisor yields (0, 0).
func (c Coefficients) Translate(i, j int32) (x, y uint32) {
	if c[6] == 0 {
		return 0, 0
	}
	tx := int64(c[0])*int64(i) + int64(c[1])*int64(j) + int64(c[2])
	if tx < 0 {
		tx = 0
	}
	ty := int64(c[3])*int64(i) + int64(c[4])*int64(j) + int64(c[5])
	if ty < 0 {
		ty = 0
	}
	d := int64(c[6])
	return uint32(tx / d), uint32(ty / d)
}

// Join renders the coefficients separated by sep, e.g. "1,2,3,4,5,6,7".
func (c Coefficients) Join(sep string) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, sep)
}

func (c Coefficients) String() string { return c.Join(",") }
