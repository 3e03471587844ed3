// Package gocmt provides conditional probabilistic models for Go, a port of
// the model families of the Conditional Modeling Toolkit to an idiomatic Go
// API on top of gonum.
//
// The library currently implements mixtures of conditional Boltzmann
// machines (package mcbm): trainable energy models of a binary output bit
// conditioned on a real- or binary-valued input vector, fitted by maximum
// likelihood with L-BFGS.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/gocmt/mcbm"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // one example per column: inputs are DimIn x N, outputs 1 x N
//	    input := mat.NewDense(2, 4, []float64{
//	        0, 0, 1, 1,
//	        0, 1, 0, 1,
//	    })
//	    output := mat.NewDense(1, 4, []float64{0, 1, 1, 0})
//
//	    model, err := mcbm.New(2, 2)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    converged, err := model.Train(input, output, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("converged:", converged)
//
//	    bits, _ := model.Evaluate(input, output)
//	    fmt.Println("negative log-likelihood (bits):", bits)
//	}
//
// # Packages
//
//   - mcbm: mixtures of conditional Boltzmann machines
//   - metrics: evaluation metrics for probabilistic binary classifiers
//   - core/model: estimator base and shared model interfaces
//   - core/parallel: CPU-parallel range helpers
//   - pkg/errors: structured error and warning types
//   - pkg/log: structured logging
package gocmt
