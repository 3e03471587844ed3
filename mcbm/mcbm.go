package mcbm

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gocmt/core/model"
	"github.com/YuminosukeSato/gocmt/pkg/errors"
)

// MCBM is a mixture of conditional Boltzmann machines over a single binary
// output bit. Parameter shapes are fixed at construction; the arrays are
// owned exclusively by the model and only copied, never aliased, across
// the optimizer boundary.
type MCBM struct {
	model.BaseEstimator

	dimIn         int
	numComponents int
	numFeatures   int

	priors     *mat.VecDense // numComponents
	weights    *mat.Dense    // numComponents x numFeatures
	features   *mat.Dense    // dimIn x numFeatures
	predictors *mat.Dense    // numComponents x dimIn
	inputBias  *mat.Dense    // dimIn x numComponents
	outputBias *mat.VecDense // numComponents

	rng *rand.Rand
}

var (
	_ model.ConditionalDistribution = (*MCBM)(nil)
	_ model.Sampler                 = (*MCBM)(nil)
)

// Option configures an MCBM at construction time.
type Option func(*MCBM)

// WithNumFeatures sets the number of learned nonlinear features.
// It defaults to the input dimensionality.
func WithNumFeatures(n int) Option {
	return func(m *MCBM) {
		m.numFeatures = n
	}
}

// WithRandomSeed seeds the generator used for parameter initialization
// and sampling, making both reproducible.
func WithRandomSeed(seed int64) Option {
	return func(m *MCBM) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates an MCBM with dimIn input dimensions and numComponents mixture
// components. Priors and biases start at zero, mixing weights at small
// positive values and features/predictors at small zero-mean noise, so the
// initial distribution is close to uniform and the log-sum-exp terms do not
// saturate early.
func New(dimIn, numComponents int, opts ...Option) (*MCBM, error) {
	m := &MCBM{
		dimIn:         dimIn,
		numComponents: numComponents,
		numFeatures:   -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.numFeatures < 0 {
		m.numFeatures = dimIn
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if m.dimIn < 1 {
		return nil, errors.NewValidationError("dimIn", "must be positive", m.dimIn)
	}
	if m.numComponents < 1 {
		return nil, errors.NewValidationError("numComponents", "must be positive", m.numComponents)
	}
	if m.numFeatures < 1 {
		return nil, errors.NewValidationError("numFeatures", "must be positive", m.numFeatures)
	}

	k, f, d := m.numComponents, m.numFeatures, m.dimIn

	m.priors = mat.NewVecDense(k, nil)

	// mixing weights stay strictly positive so the squared feature
	// activations enter as a nonnegative combination
	weights := make([]float64, k*f)
	for i := range weights {
		weights[i] = 0.01 + 0.01*m.rng.Float64()
	}
	m.weights = mat.NewDense(k, f, weights)

	features := make([]float64, d*f)
	for i := range features {
		features[i] = m.rng.NormFloat64() / 100.
	}
	m.features = mat.NewDense(d, f, features)

	predictors := make([]float64, k*d)
	for i := range predictors {
		predictors[i] = m.rng.NormFloat64() / 100.
	}
	m.predictors = mat.NewDense(k, d, predictors)

	m.inputBias = mat.NewDense(d, k, nil)
	m.outputBias = mat.NewVecDense(k, nil)

	return m, nil
}

// DimIn returns the dimensionality of the input vectors.
func (m *MCBM) DimIn() int {
	return m.dimIn
}

// DimOut returns the dimensionality of the output vectors, which is always 1
// for this model family.
func (m *MCBM) DimOut() int {
	return 1
}

// NumComponents returns the number of mixture components.
func (m *MCBM) NumComponents() int {
	return m.numComponents
}

// NumFeatures returns the number of learned nonlinear features.
func (m *MCBM) NumFeatures() int {
	return m.numFeatures
}

// Priors returns a copy of the unnormalized log-priors.
func (m *MCBM) Priors() *mat.VecDense {
	return mat.VecDenseCopyOf(m.priors)
}

// SetPriors replaces the unnormalized log-priors.
func (m *MCBM) SetPriors(priors mat.Vector) error {
	if priors.Len() != m.numComponents {
		return errors.NewDimensionError("MCBM.SetPriors", m.numComponents, priors.Len(), 0)
	}
	m.priors = mat.VecDenseCopyOf(priors)
	return nil
}

// Weights returns a copy of the feature mixing weights.
func (m *MCBM) Weights() *mat.Dense {
	return mat.DenseCopyOf(m.weights)
}

// SetWeights replaces the feature mixing weights.
func (m *MCBM) SetWeights(weights mat.Matrix) error {
	if err := checkDims("MCBM.SetWeights", weights, m.numComponents, m.numFeatures); err != nil {
		return err
	}
	m.weights = mat.DenseCopyOf(weights)
	return nil
}

// Features returns a copy of the feature projection directions.
func (m *MCBM) Features() *mat.Dense {
	return mat.DenseCopyOf(m.features)
}

// SetFeatures replaces the feature projection directions.
func (m *MCBM) SetFeatures(features mat.Matrix) error {
	if err := checkDims("MCBM.SetFeatures", features, m.dimIn, m.numFeatures); err != nil {
		return err
	}
	m.features = mat.DenseCopyOf(features)
	return nil
}

// Predictors returns a copy of the per-component output predictors.
func (m *MCBM) Predictors() *mat.Dense {
	return mat.DenseCopyOf(m.predictors)
}

// SetPredictors replaces the per-component output predictors.
func (m *MCBM) SetPredictors(predictors mat.Matrix) error {
	if err := checkDims("MCBM.SetPredictors", predictors, m.numComponents, m.dimIn); err != nil {
		return err
	}
	m.predictors = mat.DenseCopyOf(predictors)
	return nil
}

// InputBias returns a copy of the per-component input biases.
func (m *MCBM) InputBias() *mat.Dense {
	return mat.DenseCopyOf(m.inputBias)
}

// SetInputBias replaces the per-component input biases.
func (m *MCBM) SetInputBias(inputBias mat.Matrix) error {
	if err := checkDims("MCBM.SetInputBias", inputBias, m.dimIn, m.numComponents); err != nil {
		return err
	}
	m.inputBias = mat.DenseCopyOf(inputBias)
	return nil
}

// OutputBias returns a copy of the per-component output biases.
func (m *MCBM) OutputBias() *mat.VecDense {
	return mat.VecDenseCopyOf(m.outputBias)
}

// SetOutputBias replaces the per-component output biases.
func (m *MCBM) SetOutputBias(outputBias mat.Vector) error {
	if outputBias.Len() != m.numComponents {
		return errors.NewDimensionError("MCBM.SetOutputBias", m.numComponents, outputBias.Len(), 0)
	}
	m.outputBias = mat.VecDenseCopyOf(outputBias)
	return nil
}

// clone returns a deep copy of the model's parameters. The random source is
// shared; clones are snapshots for observation, not independent samplers.
func (m *MCBM) clone() *MCBM {
	c := &MCBM{
		dimIn:         m.dimIn,
		numComponents: m.numComponents,
		numFeatures:   m.numFeatures,
		priors:        mat.VecDenseCopyOf(m.priors),
		weights:       mat.DenseCopyOf(m.weights),
		features:      mat.DenseCopyOf(m.features),
		predictors:    mat.DenseCopyOf(m.predictors),
		inputBias:     mat.DenseCopyOf(m.inputBias),
		outputBias:    mat.VecDenseCopyOf(m.outputBias),
		rng:           m.rng,
	}
	if m.IsFitted() {
		c.SetFitted()
	}
	return c
}

func checkDims(op string, a mat.Matrix, rows, cols int) error {
	r, c := a.Dims()
	if r != rows {
		return errors.NewDimensionError(op, rows, r, 0)
	}
	if c != cols {
		return errors.NewDimensionError(op, cols, c, 1)
	}
	return nil
}

// validateData checks an input/output pair against the model's shape
// contract and returns dense copies with canonical layout.
func (m *MCBM) validateData(op string, input, output mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	ri, ci := input.Dims()
	ro, co := output.Dims()
	if ri != m.dimIn {
		return nil, nil, errors.NewDimensionError(op, m.dimIn, ri, 0)
	}
	if ro != 1 {
		return nil, nil, errors.NewDimensionError(op, 1, ro, 0)
	}
	if ci != co {
		return nil, nil, errors.NewDimensionError(op, ci, co, 1)
	}
	if ci == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	return mat.DenseCopyOf(input), mat.DenseCopyOf(output), nil
}

// validateInput checks an input batch against the model's shape contract
// and returns a dense copy with canonical layout.
func (m *MCBM) validateInput(op string, input mat.Matrix) (*mat.Dense, error) {
	ri, ci := input.Dims()
	if ri != m.dimIn {
		return nil, errors.NewDimensionError(op, m.dimIn, ri, 0)
	}
	if ci == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	return mat.DenseCopyOf(input), nil
}
