// Package log defines standard attribute keys for model training operations.
//
// Using these keys consistently enables structured log analysis and
// filtering across the library. Keys follow a hierarchical naming
// convention (e.g. "model.name", "train.iteration").

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "MCBM"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "train", "evaluate", "sample", "check_gradient"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "mcbm", "metrics"
	ComponentKey = "ml.component"
)

// Training progress.
const (
	// IterationKey is the optimizer's major iteration counter.
	IterationKey = "train.iteration"

	// ObjectiveKey is the current value of the minimized objective.
	ObjectiveKey = "train.objective"

	// GradNormKey is the Euclidean norm of the current gradient.
	GradNormKey = "train.grad_norm"

	// SamplesKey is the number of data columns in the current call.
	SamplesKey = "data.samples"

	// StatusKey is the optimizer's termination status.
	StatusKey = "train.status"
)
