package mcbm

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/gocmt/pkg/errors"
	"github.com/YuminosukeSato/gocmt/pkg/log"
)

// errStopRequested signals a cooperative early stop requested by a progress
// callback. It is consumed inside Train and never escapes to the caller.
var errStopRequested = errors.New("training stopped by callback")

// Train fits the flagged parameter groups to the data by maximum likelihood
// with L-BFGS. The returned boolean reports convergence: false means the
// iteration budget was exhausted, the line search failed, or a callback
// requested an early stop. In all of those cases the model keeps the last
// parameters the optimizer accepted and no error is returned; errors are
// reserved for invalid configurations and data.
func (m *MCBM) Train(input, output mat.Matrix, params *Parameters) (converged bool, err error) {
	defer errors.Recover(&err, "MCBM.Train")

	p := params.orDefaults()
	in, out, err := m.validateData("MCBM.Train", input, output)
	if err != nil {
		return false, err
	}

	numParams := m.NumParameters(p)
	if numParams == 0 {
		// nothing to train
		return true, nil
	}

	_, numData := in.Dims()
	logger := log.GetLoggerWithName("mcbm").With(
		log.ModelNameKey, "MCBM",
		log.OperationKey, "train",
	)
	if p.Verbosity > 0 {
		logger.Info("training started",
			log.SamplesKey, numData,
			"num_parameters", numParams,
		)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return -m.computeGradient(in, out, x, nil, p)
		},
		Grad: func(grad, x []float64) {
			m.computeGradient(in, out, x, grad, p)
			floats.Scale(-1., grad)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: p.Threshold,
		MajorIterations:   p.MaxIter,
		Recorder: &progressRecorder{
			model:  m,
			params: p,
			logger: logger,
		},
	}
	method := &optimize.LBFGS{Store: p.NumGrad}

	x := m.ParameterVector(p)
	result, optErr := optimize.Minimize(problem, x, settings, method)

	if result != nil && len(result.X) == numParams {
		m.setParameterVector(result.X, p)
		m.SetFitted()
	}

	if optErr != nil {
		if errors.Is(optErr, errStopRequested) {
			if p.Verbosity > 0 {
				logger.Info("training stopped early by callback")
			}
			return false, nil
		}
		// line-search and other optimizer failures are reported as a
		// status, not an error; the model keeps the last accepted point
		errors.Warn(errors.NewConvergenceWarning("L-BFGS", p.MaxIter, optErr.Error()))
		return false, nil
	}

	if nanErr := errors.CheckScalar("objective", result.F, result.Stats.MajorIterations); nanErr != nil {
		return false, nanErr
	}

	switch result.Status {
	case optimize.IterationLimit, optimize.Failure, optimize.NotTerminated:
		errors.Warn(errors.NewConvergenceWarning("L-BFGS", p.MaxIter, ""))
		converged = false
	default:
		converged = true
	}

	if p.Verbosity > 0 {
		logger.Info("training finished",
			log.StatusKey, result.Status.String(),
			log.ObjectiveKey, result.F,
			log.IterationKey, result.Stats.MajorIterations,
		)
	}
	return converged, nil
}

// progressRecorder adapts the optimizer's recording hook to progress
// callbacks and verbose logging. Callbacks see a snapshot clone; the
// training iterate itself is never exposed to them.
type progressRecorder struct {
	model  *MCBM
	params *Parameters
	logger log.Logger
}

func (r *progressRecorder) Init() error {
	return nil
}

func (r *progressRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	iter := stats.MajorIterations

	if r.params.Verbosity > 1 {
		r.logger.Info("iteration",
			log.IterationKey, iter,
			log.ObjectiveKey, loc.F,
		)
	}

	if r.params.Callback == nil || r.params.CbIter <= 0 || iter%r.params.CbIter != 0 {
		return nil
	}

	snapshot := r.model.clone()
	snapshot.setParameterVector(loc.X, r.params)
	env := &ProgressEnv{
		Model:     snapshot,
		Iteration: iter,
		Objective: loc.F,
	}
	r.params.Callback(env)
	if env.StopTraining {
		return errStopRequested
	}
	return nil
}
