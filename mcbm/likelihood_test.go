package mcbm

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gocmt/metrics"
	"github.com/YuminosukeSato/gocmt/pkg/errors"
)

func TestLogLikelihood_Normalization(t *testing.T) {
	m, err := New(5, 3, WithRandomSeed(21))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rng := rand.New(rand.NewSource(22))
	input, _ := randomData(rng, 5, 50)
	_, n := input.Dims()

	zeros := mat.NewDense(1, n, nil)
	ones := mat.NewDense(1, n, nil)
	for j := 0; j < n; j++ {
		ones.Set(0, j, 1)
	}

	ll0, err := m.LogLikelihood(input, zeros)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}
	ll1, err := m.LogLikelihood(input, ones)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}

	for j := 0; j < n; j++ {
		sum := math.Exp(ll0[j]) + math.Exp(ll1[j])
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("column %d: probabilities sum to %v, want 1", j, sum)
		}
	}
}

// With a single component the model reduces to a logistic-style energy
// model and the prior is a constant that cancels in the normalization.
func TestLogLikelihood_SingleComponent(t *testing.T) {
	m, err := New(4, 1, WithRandomSeed(23))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rng := rand.New(rand.NewSource(24))
	input, output := randomData(rng, 4, 30)

	before, err := m.LogLikelihood(input, output)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}

	if err := m.SetPriors(mat.NewVecDense(1, []float64{5})); err != nil {
		t.Fatalf("SetPriors failed: %v", err)
	}

	after, err := m.LogLikelihood(input, output)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}

	for j := range before {
		if math.Abs(before[j]-after[j]) > 1e-12 {
			t.Errorf("column %d: shifting the single prior changed the likelihood: %v != %v",
				j, before[j], after[j])
		}
	}
}

func TestEvaluate_MatchesLogLoss(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(25))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rng := rand.New(rand.NewSource(26))
	input, output := randomData(rng, 3, 40)
	_, n := input.Dims()

	bits, err := m.Evaluate(input, output)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	proba, err := m.PredictProba(input)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	yTrue := mat.NewVecDense(n, mat.Row(nil, 0, output))
	yProb := mat.NewVecDense(n, mat.Row(nil, 0, proba))
	loss, err := metrics.LogLoss(yTrue, yProb)
	if err != nil {
		t.Fatalf("LogLoss failed: %v", err)
	}

	if math.Abs(bits*math.Ln2-loss) > 1e-9 {
		t.Errorf("Evaluate and LogLoss disagree: %v bits = %v nats, LogLoss %v nats",
			bits, bits*math.Ln2, loss)
	}
}

func TestSample_EmpiricalFrequency(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(27))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// one fixed input column, replicated
	const n = 100000
	column := []float64{0.3, -1.2, 0.7}
	input := mat.NewDense(3, n, nil)
	for j := 0; j < n; j++ {
		for i, v := range column {
			input.Set(i, j, v)
		}
	}

	proba, err := m.PredictProba(mat.NewDense(3, 1, column))
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	want := proba.At(0, 0)

	sample, err := m.Sample(input)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	var count float64
	for j := 0; j < n; j++ {
		count += sample.At(0, j)
	}
	got := count / n

	if math.Abs(got-want) > 0.01 {
		t.Errorf("empirical frequency %v, want %v within 0.01", got, want)
	}
}

func TestLogLikelihood_ShapeErrors(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(28))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// wrong input dimensionality
	if _, err := m.LogLikelihood(mat.NewDense(2, 5, nil), mat.NewDense(1, 5, nil)); err == nil {
		t.Error("wrong input rows should fail")
	} else {
		var dimErr *errors.DimensionError
		if !errors.As(err, &dimErr) {
			t.Errorf("expected DimensionError, got %T", err)
		}
	}

	// wrong output dimensionality
	if _, err := m.LogLikelihood(mat.NewDense(3, 5, nil), mat.NewDense(2, 5, nil)); err == nil {
		t.Error("multi-row output should fail")
	}

	// mismatched column counts
	if _, err := m.LogLikelihood(mat.NewDense(3, 5, nil), mat.NewDense(1, 4, nil)); err == nil {
		t.Error("mismatched column counts should fail")
	}

	// empty data
	if _, err := m.Evaluate(zeroColMatrix{rows: 3}, zeroColMatrix{rows: 1}); err == nil {
		t.Error("empty data should fail")
	} else if !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}
}

// zeroColMatrix reports a zero column count, which mat.NewDense cannot
// represent.
type zeroColMatrix struct{ rows int }

func (z zeroColMatrix) Dims() (int, int)    { return z.rows, 0 }
func (z zeroColMatrix) At(i, j int) float64 { panic("empty matrix") }
func (z zeroColMatrix) T() mat.Matrix       { return mat.Transpose{Matrix: z} }
