package mcbm

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gocmt/metrics"
	"github.com/YuminosukeSato/gocmt/pkg/errors"
	"github.com/YuminosukeSato/gocmt/pkg/log"
)

// syntheticModel builds a generating model with strong predictor structure
// so its samples carry learnable signal.
func syntheticModel(t *testing.T, dimIn, numComponents int) *MCBM {
	t.Helper()
	m, err := New(dimIn, numComponents, WithRandomSeed(51))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	predictors := mat.NewDense(numComponents, dimIn, nil)
	for c := 0; c < numComponents; c++ {
		for i := 0; i < dimIn; i++ {
			if (c+i)%2 == 0 {
				predictors.Set(c, i, 2)
			} else {
				predictors.Set(c, i, -2)
			}
		}
	}
	if err := m.SetPredictors(predictors); err != nil {
		t.Fatalf("SetPredictors failed: %v", err)
	}
	return m
}

func TestTrain_ImprovesFit(t *testing.T) {
	truth := syntheticModel(t, 4, 3)

	rng := rand.New(rand.NewSource(52))
	const n = 500
	input := mat.NewDense(4, n, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < n; j++ {
			input.Set(i, j, rng.NormFloat64())
		}
	}
	output, err := truth.Sample(input)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	m, err := New(4, 3, WithRandomSeed(53))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	before, err := m.Evaluate(input, output)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	params := NewParameters()
	params.MaxIter = 200
	if _, err := m.Train(input, output, params); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if !m.IsFitted() {
		t.Error("model not marked fitted after training")
	}

	after, err := m.Evaluate(input, output)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if after >= before {
		t.Errorf("training did not reduce the loss: %v -> %v", before, after)
	}

	proba, err := m.PredictProba(input)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	yPred := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		if proba.At(0, j) > 0.5 {
			yPred.SetVec(j, 1)
		}
	}
	yTrue := mat.NewVecDense(n, mat.Row(nil, 0, output))
	acc, err := metrics.Accuracy(yTrue, yPred)
	if err != nil {
		t.Fatalf("Accuracy failed: %v", err)
	}
	if acc < 0.55 {
		t.Errorf("accuracy %v below 0.55", acc)
	}
}

func TestTrain_CallbackEarlyStop(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(54))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(55))
	input, output := randomData(rng, 3, 100)

	calls := 0
	params := NewParameters()
	params.CbIter = 1
	params.Callback = func(env *ProgressEnv) {
		calls++
		if env.Model == nil {
			t.Error("callback received a nil model snapshot")
		}
		if env.Model == m {
			t.Error("callback received the live model instead of a snapshot")
		}
		env.StopTraining = true
	}

	converged, err := m.Train(input, output, params)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if converged {
		t.Error("early-stopped training reported converged")
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestTrain_CallbackObjectiveHistory(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(56))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(57))
	input, output := randomData(rng, 3, 100)

	var history []float64
	params := NewParameters()
	params.MaxIter = 30
	params.CbIter = 1
	params.Callback = RecordObjective(&history)

	if _, err := m.Train(input, output, params); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if len(history) == 0 {
		t.Fatal("no objective values recorded")
	}
}

func TestTrain_IterationLimitWarns(t *testing.T) {
	var captured []error
	errors.SetWarningHandler(func(w error) { captured = append(captured, w) })
	defer errors.SetWarningHandler(func(error) {})

	m, err := New(3, 2, WithRandomSeed(58))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(59))
	input, output := randomData(rng, 3, 100)

	params := NewParameters()
	params.MaxIter = 1

	converged, err := m.Train(input, output, params)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if converged {
		t.Error("one-iteration training reported converged")
	}
	if len(captured) == 0 {
		t.Fatal("no convergence warning raised")
	}
	var convWarn *errors.ConvergenceWarning
	if !errors.As(captured[0], &convWarn) {
		t.Errorf("expected ConvergenceWarning, got %T", captured[0])
	}
}

func TestTrain_VerboseLogging(t *testing.T) {
	testLogger, _ := log.NewTestLogger(log.LevelDebug)
	prev := log.GetLogger()
	log.SetLogger(testLogger)
	defer log.SetLogger(prev)

	m, err := New(3, 2, WithRandomSeed(60))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(61))
	input, output := randomData(rng, 3, 100)

	params := NewParameters()
	params.MaxIter = 10
	params.Verbosity = 2

	if _, err := m.Train(input, output, params); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if !testLogger.ContainsMessage("training started") {
		t.Error("missing 'training started' log entry")
	}
	if !testLogger.ContainsMessage("training finished") {
		t.Error("missing 'training finished' log entry")
	}
	if !testLogger.ContainsMessage("iteration") {
		t.Error("missing per-iteration log entries")
	}
}

func TestTrain_InvalidData(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(62))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := m.Train(mat.NewDense(3, 5, nil), mat.NewDense(1, 4, nil), nil); err == nil {
		t.Error("mismatched column counts should fail")
	}
}

func TestTrain_NothingToTrain(t *testing.T) {
	m, err := New(3, 2, WithRandomSeed(63))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(64))
	input, output := randomData(rng, 3, 10)

	converged, err := m.Train(input, output, noTrainParams())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if !converged {
		t.Error("training with no flagged groups should report converged")
	}
	if m.IsFitted() {
		t.Error("model should stay unfitted when nothing was trained")
	}
}
