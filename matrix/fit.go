package matrix

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/xianyo/tscalibrator/models"
)

// Observation is a target location paired with a raw reading.
type Observation struct {
	X, Y float64
	I, J float64
}

// Fit is a least-squares affine fit over any number of observations.
type Fit struct {
	Coefficients models.Coefficients
	Rank         int
	RMS          float64 // residual of the fitted transform, in target units
}

// FitAffine computes the minimum-norm least-squares transform through the
// pseudo-inverse of the n x 3 design matrix.
func FitAffine(obs []Observation) (Fit, error) {
	if len(obs) < 3 {
		return Fit{}, fmt.Errorf("need at least 3 observations, got %d", len(obs))
	}
	n := len(obs)
	a := mat.NewDense(n, 3, nil)
	b := mat.NewDense(n, 2, nil)
	for k, o := range obs {
		a.SetRow(k, []float64{o.I, o.J, 1})
		b.SetRow(k, []float64{o.X, o.Y})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return Fit{}, errors.New("SVD failed; cannot compute pseudoinverse")
	}
	rank := svd.Rank(1e-12)
	if rank < 3 {
		return Fit{Rank: rank}, fmt.Errorf("%w: design matrix rank %d", ErrSingular, rank)
	}
	var sol mat.Dense
	svd.SolveTo(&sol, b, rank)

	var c models.Coefficients
	for k := 0; k < 3; k++ {
		c[k] = toFixed(sol.At(k, 0))
		c[k+3] = toFixed(sol.At(k, 1))
	}
	c[6] = models.FixedDivisor
	return Fit{Coefficients: c, Rank: rank, RMS: Residual(c, obs)}, nil
}

// Residual is the RMS distance between each target and the fixed-point
// transform of its raw reading.
func Residual(c models.Coefficients, obs []Observation) float64 {
	if len(obs) == 0 || c[6] == 0 {
		return 0
	}
	d := float64(c[6])
	var sum float64
	for _, o := range obs {
		x := (float64(c[0])*o.I + float64(c[1])*o.J + float64(c[2])) / d
		y := (float64(c[3])*o.I + float64(c[4])*o.J + float64(c[5])) / d
		dx, dy := x-o.X, y-o.Y
		sum += dx*dx + dy*dy
	}
	return math.Sqrt(sum / float64(len(obs)))
}
