package mcbm

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gocmt/pkg/errors"
)

// noTrainParams returns a configuration with every training flag cleared.
func noTrainParams() *Parameters {
	p := NewParameters()
	p.TrainPriors = false
	p.TrainWeights = false
	p.TrainFeatures = false
	p.TrainPredictors = false
	p.TrainInputBias = false
	p.TrainOutputBias = false
	return p
}

// randomData draws n standard-normal input columns and fair-coin outputs.
func randomData(rng *rand.Rand, dimIn, n int) (*mat.Dense, *mat.Dense) {
	input := mat.NewDense(dimIn, n, nil)
	output := mat.NewDense(1, n, nil)
	for j := 0; j < n; j++ {
		for i := 0; i < dimIn; i++ {
			input.Set(i, j, rng.NormFloat64())
		}
		if rng.Float64() < 0.5 {
			output.Set(0, j, 1)
		}
	}
	return input, output
}

func TestNew_Defaults(t *testing.T) {
	m, err := New(5, 3, WithRandomSeed(42))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if m.DimIn() != 5 || m.NumComponents() != 3 || m.NumFeatures() != 5 {
		t.Errorf("unexpected dimensions: dimIn=%d components=%d features=%d",
			m.DimIn(), m.NumComponents(), m.NumFeatures())
	}
	if m.DimOut() != 1 {
		t.Errorf("DimOut should be 1, got %d", m.DimOut())
	}

	// priors and biases start at zero
	priors := m.Priors()
	for i := 0; i < priors.Len(); i++ {
		if priors.AtVec(i) != 0 {
			t.Errorf("priors[%d] = %f, want 0", i, priors.AtVec(i))
		}
	}

	// mixing weights are small and strictly positive
	weights := m.Weights()
	r, c := weights.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w := weights.At(i, j)
			if w < 0.01 || w >= 0.02 {
				t.Errorf("weights[%d,%d] = %f, want in [0.01, 0.02)", i, j, w)
			}
		}
	}
}

func TestNew_NumFeaturesOption(t *testing.T) {
	m, err := New(5, 3, WithNumFeatures(2), WithRandomSeed(1))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if m.NumFeatures() != 2 {
		t.Errorf("NumFeatures = %d, want 2", m.NumFeatures())
	}

	features := m.Features()
	r, c := features.Dims()
	if r != 5 || c != 2 {
		t.Errorf("features shape = %dx%d, want 5x2", r, c)
	}
}

func TestNew_InvalidHyperparameters(t *testing.T) {
	cases := []struct {
		name string
		fn   func() (*MCBM, error)
	}{
		{"zero dimIn", func() (*MCBM, error) { return New(0, 2) }},
		{"zero components", func() (*MCBM, error) { return New(3, 0) }},
		{"zero features", func() (*MCBM, error) { return New(3, 2, WithNumFeatures(0)) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := tc.fn()
			if err == nil {
				t.Fatal("expected error")
			}
			if m != nil {
				t.Error("failed construction should not return a model")
			}
			var valErr *errors.ValidationError
			if !errors.As(err, &valErr) {
				t.Errorf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestSetters_ShapeValidation(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(3))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := m.SetPriors(mat.NewVecDense(3, nil)); err == nil {
		t.Error("SetPriors with wrong length should fail")
	}
	if err := m.SetWeights(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("SetWeights with wrong shape should fail")
	}
	if err := m.SetFeatures(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("SetFeatures with wrong shape should fail")
	}
	if err := m.SetPredictors(mat.NewDense(3, 2, nil)); err == nil {
		t.Error("SetPredictors with wrong shape should fail")
	}
	if err := m.SetInputBias(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("SetInputBias with wrong shape should fail")
	}
	if err := m.SetOutputBias(mat.NewVecDense(1, nil)); err == nil {
		t.Error("SetOutputBias with wrong length should fail")
	}

	// matching shapes succeed and are copied in
	pred := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	if err := m.SetPredictors(pred); err != nil {
		t.Fatalf("SetPredictors failed: %v", err)
	}
	pred.Set(0, 0, -1) // mutating the argument must not reach the model
	if got := m.Predictors().At(0, 0); got != 1 {
		t.Errorf("predictors[0,0] = %f, want 1 (model must own a copy)", got)
	}
}

func TestGetters_ReturnCopies(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(5))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	before := m.ParameterVector(nil)

	m.Weights().Set(0, 0, 99)
	m.Priors().SetVec(0, 99)

	after := m.ParameterVector(nil)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("mutating a getter result changed the model at flat index %d", i)
		}
	}
}
