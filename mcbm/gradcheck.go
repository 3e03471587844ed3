package mcbm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gocmt/core/parallel"
	"github.com/YuminosukeSato/gocmt/pkg/errors"
)

// CheckGradient compares the analytic gradient against central finite
// differences of the objective, coordinate by coordinate, and returns the
// Euclidean norm of the difference vector. It is a correctness self-test;
// the model's parameters are left untouched.
func (m *MCBM) CheckGradient(input, output mat.Matrix, epsilon float64, params *Parameters) (float64, error) {
	p := params.orDefaults()
	in, out, err := m.validateData("MCBM.CheckGradient", input, output)
	if err != nil {
		return 0, err
	}
	if epsilon <= 0 {
		return 0, errors.NewValueError("MCBM.CheckGradient", "epsilon must be positive")
	}

	x := m.ParameterVector(p)
	numParams := len(x)
	if numParams == 0 {
		return 0, errors.NewValueError("MCBM.CheckGradient", "no trainable parameters")
	}

	numeric := make([]float64, numParams)

	// coordinates are independent: each worker perturbs its own copy of
	// the parameter vector and restores it after every coordinate, so no
	// corruption can leak across coordinates
	parallel.ParallelizeWithThreshold(numParams, 64, func(start, end int) {
		y := make([]float64, numParams)
		copy(y, x)
		for i := start; i < end; i++ {
			y[i] = x[i] + epsilon
			val1 := m.computeGradient(in, out, y, nil, p)
			y[i] = x[i] - epsilon
			val2 := m.computeGradient(in, out, y, nil, p)
			y[i] = x[i]
			numeric[i] = (val1 - val2) / (2. * epsilon)
		}
	})

	analytic := make([]float64, numParams)
	m.computeGradient(in, out, x, analytic, p)

	return floats.Distance(analytic, numeric, 2), nil
}
