// Package model provides the estimator base and the interfaces shared by
// the library's conditional models.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// ConditionalDistribution is the interface for trainable models of an
// output conditioned on an input. Data matrices are column-major in the
// statistical sense: one column per example, inputs of shape
// DimIn x N and outputs of shape DimOut x N.
type ConditionalDistribution interface {
	// DimIn returns the dimensionality of the input vectors.
	DimIn() int

	// DimOut returns the dimensionality of the output vectors.
	DimOut() int

	// LogLikelihood returns the normalized conditional log-likelihood of
	// each example column, in nats.
	LogLikelihood(input, output mat.Matrix) ([]float64, error)

	// Evaluate returns the average negative conditional log-likelihood in
	// bits per output component.
	Evaluate(input, output mat.Matrix) (float64, error)
}

// Sampler is the interface for models that can draw outputs for given inputs.
type Sampler interface {
	// Sample draws one output column per input column.
	Sample(input mat.Matrix) (*mat.Dense, error)
}
