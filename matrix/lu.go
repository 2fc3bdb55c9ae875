package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/xianyo/tscalibrator/models"
)

// FiveWireLU solves the same system as FiveWire through a partially pivoted
// LU factorization. An ill-conditioned system is reported as ErrSingular.
func FiveWireLU(points [3]models.CalibrationPoint) (models.Coefficients, error) {
	if err := checkColinear(points); err != nil {
		return models.Unsolved(), err
	}

	a := mat.NewDense(3, 3, nil)
	bx := mat.NewVecDense(3, nil)
	by := mat.NewVecDense(3, nil)
	for k, p := range points {
		a.SetRow(k, []float64{float64(p.I), float64(p.J), 1})
		bx.SetVec(k, float64(p.X))
		by.SetVec(k, float64(p.Y))
	}

	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); math.IsInf(cond, 1) || cond > mat.ConditionTolerance {
		return models.Unsolved(), fmt.Errorf("%w: condition number %.3g", ErrSingular, cond)
	}

	var sx, sy mat.VecDense
	if err := lu.SolveVecTo(&sx, false, bx); err != nil {
		return models.Unsolved(), fmt.Errorf("%w: %v", ErrSingular, err)
	}
	if err := lu.SolveVecTo(&sy, false, by); err != nil {
		return models.Unsolved(), fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var c models.Coefficients
	for k := 0; k < 3; k++ {
		c[k] = toFixed(sx.AtVec(k))
		c[k+3] = toFixed(sy.AtVec(k))
	}
	c[6] = models.FixedDivisor
	return c, nil
}

// Solver is the signature shared by FiveWire and FiveWireLU.
type Solver func(points [3]models.CalibrationPoint) (models.Coefficients, error)

// SolverByName maps a SOLVER config value to its implementation.
func SolverByName(name string) (Solver, error) {
	switch name {
	case "", models.SolverFiveWire:
		return FiveWire, nil
	case models.SolverLU:
		return FiveWireLU, nil
	}
	return nil, fmt.Errorf("unknown solver %q", name)
}
