package mcbm

import (
	"fmt"
)

// Parameters is the training configuration for MCBM. It is a value object:
// every training or gradient call works on its own copy, so a Parameters
// can be reused and mutated freely between calls. The Callback is shared by
// reference across copies; it observes progress and must not mutate the
// model being trained.
type Parameters struct {
	// Verbosity controls progress logging: 0 silent, 1 start/finish,
	// 2 per-iteration.
	Verbosity int

	// MaxIter caps the number of L-BFGS iterations.
	MaxIter int

	// Threshold is the gradient-norm convergence criterion.
	Threshold float64

	// NumGrad is the number of gradients kept by the L-BFGS history.
	NumGrad int

	// BatchSize is the number of example columns accumulated per slice in
	// one gradient evaluation. It only affects memory traffic, not the
	// result.
	BatchSize int

	// Callback, when set, is invoked every CbIter iterations with a
	// snapshot of the model.
	Callback ProgressCallback

	// CbIter is the callback period in iterations.
	CbIter int

	// Per-group training flags. A group with its flag unset is excluded
	// from the flat parameter buffer and held fixed during training.
	TrainPriors     bool
	TrainWeights    bool
	TrainFeatures   bool
	TrainPredictors bool
	TrainInputBias  bool
	TrainOutputBias bool

	// L2 regularization strengths on the feature and predictor groups.
	RegularizeFeatures   float64
	RegularizePredictors float64
}

// NewParameters returns the default training configuration: all groups
// trained, no regularization.
func NewParameters() *Parameters {
	return &Parameters{
		Verbosity: 0,
		MaxIter:   1000,
		Threshold: 1e-5,
		NumGrad:   20,
		BatchSize: 2000,
		CbIter:    25,

		TrainPriors:     true,
		TrainWeights:    true,
		TrainFeatures:   true,
		TrainPredictors: true,
		TrainInputBias:  true,
		TrainOutputBias: true,
	}
}

// orDefaults returns a private copy of p, or the defaults when p is nil.
func (p *Parameters) orDefaults() *Parameters {
	if p == nil {
		return NewParameters()
	}
	q := *p
	return &q
}

// ProgressEnv is the environment passed to progress callbacks.
type ProgressEnv struct {
	// Model is a snapshot of the model at the current iterate. Mutating it
	// has no effect on the training run.
	Model *MCBM

	// Iteration is the optimizer's major iteration counter.
	Iteration int

	// Objective is the current value of the minimized objective, the
	// normalized negative log-likelihood.
	Objective float64

	// StopTraining can be set to stop training cooperatively before the
	// next evaluation. Train then reports a non-converged status.
	StopTraining bool
}

// ProgressCallback is invoked periodically during training.
type ProgressCallback func(env *ProgressEnv)

// PrintProgress returns a callback that prints the objective value.
func PrintProgress() ProgressCallback {
	return func(env *ProgressEnv) {
		fmt.Printf("[%d] objective: %.6f\n", env.Iteration, env.Objective)
	}
}

// RecordObjective returns a callback that appends the objective value to
// history.
func RecordObjective(history *[]float64) ProgressCallback {
	return func(env *ProgressEnv) {
		*history = append(*history, env.Objective)
	}
}
