package matrix

import (
	"errors"
	"fmt"
	"math"

	"github.com/xianyo/tscalibrator/models"
)

var (
	ErrColinearX = errors.New("calibration points are co-linear in X")
	ErrColinearY = errors.New("calibration points are co-linear in Y")
	ErrSingular  = errors.New("singular matrix")
)

// PivotError reports the column whose pivot was exactly zero.
type PivotError struct {
	Column int
}

func (e *PivotError) Error() string {
	return fmt.Sprintf("singular matrix: w[%d][%d]=0", e.Column, e.Column)
}

func (e *PivotError) Unwrap() error { return ErrSingular }

// work is the 3x6 augmented matrix [M | I].
type work [3][6]float64

func (w *work) swap(a, b int) { w[a], w[b] = w[b], w[a] }

// normalize divides row r (from column r) by its pivot.
func (w *work) normalize(r int) error {
	t := w[r][r]
	if t == 0 {
		return &PivotError{Column: r}
	}
	w[r][r] = 1.0
	for i := r + 1; i < 6; i++ {
		w[r][i] /= t
	}
	return nil
}

// eliminate subtracts row src from row dst to clear column col, touching
// columns from `from` onwards.
func (w *work) eliminate(dst, src, col, from int) {
	t := w[dst][col]
	w[dst][col] = 0
	for i := from; i < 6; i++ {
		w[dst][i] -= w[src][i] * t
	}
}

func checkColinear(points [3]models.CalibrationPoint) error {
	if points[0].X == points[1].X && points[1].X == points[2].X {
		return ErrColinearX
	}
	if points[0].Y == points[1].Y && points[1].Y == points[2].Y {
		return ErrColinearY
	}
	return nil
}

// FiveWire solves for the affine transform mapping the raw (i, j) readings
// of three points onto their (x, y) targets.
//
// Pivot selection compares signed values, not magnitudes, so it is not true
// partial pivoting; FiveWireLU is the numerically robust alternative. On any
// error the returned coefficients are models.Unsolved().
func FiveWire(points [3]models.CalibrationPoint) (models.Coefficients, error) {
	if err := checkColinear(points); err != nil {
		return models.Unsolved(), err
	}

	var w work
	for k, p := range points {
		w[0][k] = float64(p.I)
		w[1][k] = float64(p.J)
		w[2][k] = 1.0
	}
	for j := 0; j < 3; j++ {
		w[j][j+3] = 1.0
	}

	// column 0
	if w[0][0] < w[1][0] {
		w.swap(0, 1)
	}
	if w[0][0] < w[2][0] {
		w.swap(0, 2)
	}
	if err := w.normalize(0); err != nil {
		return models.Unsolved(), err
	}
	w.eliminate(1, 0, 0, 1)
	w.eliminate(2, 0, 0, 1)

	// column 1
	if w[1][1] < w[2][1] {
		w.swap(1, 2)
	}
	if err := w.normalize(1); err != nil {
		return models.Unsolved(), err
	}
	w.eliminate(2, 1, 1, 2)

	// column 2
	if err := w.normalize(2); err != nil {
		return models.Unsolved(), err
	}
	w.eliminate(0, 2, 2, 3)
	w.eliminate(1, 2, 2, 3)

	// back-substitute column 1 out of row 0
	w.eliminate(0, 1, 1, 3)

	//	| x1 x2 x3 |   | i1 i2 i3 | -1
	//	| y1 y2 y3 | * | j1 j2 j3 |
	//	               |  1  1  1 |
	var c models.Coefficients
	for col := 0; col < 3; col++ {
		sx := float64(points[0].X)*w[0][col+3] + float64(points[1].X)*w[1][col+3] + float64(points[2].X)*w[2][col+3]
		sy := float64(points[0].Y)*w[0][col+3] + float64(points[1].Y)*w[1][col+3] + float64(points[2].Y)*w[2][col+3]
		c[col] = toFixed(sx)
		c[col+3] = toFixed(sy)
	}
	c[6] = models.FixedDivisor
	return c, nil
}

// toFixed scales d by the fixed divisor and rounds half away from zero.
func toFixed(d float64) int32 {
	return int32(math.Round(d * models.FixedDivisor))
}
