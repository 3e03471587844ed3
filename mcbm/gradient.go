package mcbm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// groupView resolves one parameter group for a single gradient evaluation:
// either a slice of the optimizer's flat buffer (group is being trained) or
// the model's stored array (group is held fixed). The resolution happens
// once per evaluation and is never mixed mid-computation.
type groupView struct {
	vals []float64
	grad []float64 // nil when the group is fixed or no gradient was requested
}

// computeGradient returns the average conditional log-likelihood of the
// data, normalized by numData/ln 2, reading trainable groups from the flat
// buffer x and fixed groups from the model. When g is non-nil, it also
// accumulates the analytic gradient of the normalized log-likelihood into
// g, using the same flat layout as ParameterVector. The data is processed
// in contiguous column slices of at most BatchSize examples; slicing does
// not change the result.
func (m *MCBM) computeGradient(input, output *mat.Dense, x, g []float64, p *Parameters) float64 {
	k, f, d := m.numComponents, m.numFeatures, m.dimIn

	offset := 0
	view := func(trained bool, stored []float64, size int) groupView {
		var v groupView
		if trained {
			v.vals = x[offset : offset+size]
			if g != nil {
				v.grad = g[offset : offset+size]
			}
			offset += size
		} else {
			v.vals = stored
		}
		return v
	}

	priors := view(p.TrainPriors, m.priors.RawVector().Data, k)
	weights := view(p.TrainWeights, m.weights.RawMatrix().Data, k*f)
	features := view(p.TrainFeatures, m.features.RawMatrix().Data, d*f)
	predictors := view(p.TrainPredictors, m.predictors.RawMatrix().Data, k*d)
	inputBias := view(p.TrainInputBias, m.inputBias.RawMatrix().Data, d*k)
	outputBias := view(p.TrainOutputBias, m.outputBias.RawVector().Data, k)

	weightsM := mat.NewDense(k, f, weights.vals)
	featuresM := mat.NewDense(d, f, features.vals)
	predictorsM := mat.NewDense(k, d, predictors.vals)
	inputBiasM := mat.NewDense(d, k, inputBias.vals)

	if g != nil {
		for i := range g {
			g[i] = 0
		}
	}

	_, numData := input.Dims()
	batchSize := p.BatchSize
	if batchSize <= 0 || batchSize > numData {
		batchSize = numData
	}

	var logLik float64

	for b := 0; b < numData; b += batchSize {
		width := batchSize
		if numData-b < width {
			width = numData - b
		}
		in := input.Slice(0, d, b, b+width).(*mat.Dense)
		out := output.Slice(0, 1, b, b+width).(*mat.Dense)

		var featureOutput mat.Dense // f x width
		featureOutput.Mul(featuresM.T(), in)

		featureOutputSq := mat.NewDense(f, width, nil)
		for i := 0; i < f; i++ {
			for j := 0; j < width; j++ {
				v := featureOutput.At(i, j)
				featureOutputSq.Set(i, j, v*v)
			}
		}

		var weightsOutput mat.Dense // k x width
		weightsOutput.Mul(weightsM, featureOutputSq)

		var biasEnergy mat.Dense // k x width
		biasEnergy.Mul(inputBiasM.T(), in)

		var predictorOutput mat.Dense // k x width
		predictorOutput.Mul(predictorsM, in)

		// unnormalized posteriors over components for both candidate outputs
		logPost0 := mat.NewDense(k, width, nil)
		logPost1 := mat.NewDense(k, width, nil)
		for c := 0; c < k; c++ {
			for j := 0; j < width; j++ {
				s0 := weightsOutput.At(c, j) + biasEnergy.At(c, j) + priors.vals[c]
				logPost0.Set(c, j, s0)
				logPost1.Set(c, j, s0+predictorOutput.At(c, j)+outputBias.vals[c])
			}
		}

		// marginalize over components
		logProb0 := logSumExpCols(logPost0)
		logProb1 := logSumExpCols(logPost1)

		// normalize posteriors within each candidate output
		for c := 0; c < k; c++ {
			for j := 0; j < width; j++ {
				logPost0.Set(c, j, logPost0.At(c, j)-logProb0[j])
				logPost1.Set(c, j, logPost1.At(c, j)-logProb1[j])
			}
		}

		// normalize over the two candidate outputs
		for j := 0; j < width; j++ {
			logNorm := logSumExp2(logProb0[j], logProb1[j])
			logProb0[j] -= logNorm
			logProb1[j] -= logNorm
		}

		for j := 0; j < width; j++ {
			y := out.At(0, j)
			logLik += y*logProb1[j] + (1.-y)*logProb0[j]
		}

		if g == nil {
			continue
		}

		// derivative of the per-example log-likelihood with respect to the
		// two unnormalized branch log-probabilities, combined
		tmp := make([]float64, width)
		for j := 0; j < width; j++ {
			y := out.At(0, j)
			tmp[j] = y*math.Exp(logProb0[j]) - (1.-y)*math.Exp(logProb1[j])
		}

		post0Tmp := mat.NewDense(k, width, nil)
		post1Tmp := mat.NewDense(k, width, nil)
		postDiff := mat.NewDense(k, width, nil)
		for c := 0; c < k; c++ {
			for j := 0; j < width; j++ {
				p0 := math.Exp(logPost0.At(c, j)) * tmp[j]
				p1 := math.Exp(logPost1.At(c, j)) * tmp[j]
				post0Tmp.Set(c, j, p0)
				post1Tmp.Set(c, j, p1)
				postDiff.Set(c, j, p1-p0)
			}
		}

		if priors.grad != nil {
			for c := 0; c < k; c++ {
				var sum float64
				for j := 0; j < width; j++ {
					sum += postDiff.At(c, j)
				}
				priors.grad[c] += sum
			}
		}

		if weights.grad != nil {
			var gw mat.Dense // k x f
			gw.Mul(postDiff, featureOutputSq.T())
			floats.Add(weights.grad, gw.RawMatrix().Data)
		}

		if features.grad != nil {
			// chain rule through the squared feature activation
			var back mat.Dense // f x width
			back.Mul(weightsM.T(), postDiff)
			scaled := mat.NewDense(f, width, nil)
			for i := 0; i < f; i++ {
				for j := 0; j < width; j++ {
					scaled.Set(i, j, 2.*back.At(i, j)*featureOutput.At(i, j))
				}
			}
			var gf mat.Dense // d x f
			gf.Mul(in, scaled.T())
			floats.Add(features.grad, gf.RawMatrix().Data)
		}

		if predictors.grad != nil {
			var gp mat.Dense // k x d
			gp.Mul(post1Tmp, in.T())
			floats.Add(predictors.grad, gp.RawMatrix().Data)
		}

		if inputBias.grad != nil {
			var gb mat.Dense // d x k
			gb.Mul(in, postDiff.T())
			floats.Add(inputBias.grad, gb.RawMatrix().Data)
		}

		if outputBias.grad != nil {
			for c := 0; c < k; c++ {
				var sum float64
				for j := 0; j < width; j++ {
					sum += post1Tmp.At(c, j)
				}
				outputBias.grad[c] += sum
			}
		}
	}

	// L2 penalties enter the objective and gradient before the shared
	// normalization, so the gradient checker sees a consistent pair
	if p.RegularizeFeatures > 0 {
		logLik -= p.RegularizeFeatures * floats.Dot(features.vals, features.vals)
		if features.grad != nil {
			floats.AddScaled(features.grad, -2.*p.RegularizeFeatures, features.vals)
		}
	}
	if p.RegularizePredictors > 0 {
		logLik -= p.RegularizePredictors * floats.Dot(predictors.vals, predictors.vals)
		if predictors.grad != nil {
			floats.AddScaled(predictors.grad, -2.*p.RegularizePredictors, predictors.vals)
		}
	}

	normConst := float64(numData) / math.Ln2
	if g != nil {
		floats.Scale(1./normConst, g)
	}
	return logLik / normConst
}
