package mcbm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// condLogProbs computes the normalized conditional log-probabilities of
// output 0 and output 1 for each input column. The whole computation stays
// in the log domain; components are marginalized with logSumExpCols and the
// two candidate outputs normalized against each other.
func (m *MCBM) condLogProbs(input *mat.Dense) (logProb0, logProb1 []float64) {
	k := m.numComponents
	_, n := input.Dims()

	// squared linear feature activations, nonnegatively mixed
	var featureOutput mat.Dense
	featureOutput.Mul(m.features.T(), input)
	fo := featureOutput.RawMatrix()
	for i := range fo.Data {
		fo.Data[i] *= fo.Data[i]
	}

	var featureEnergy mat.Dense
	featureEnergy.Mul(m.weights, &featureOutput)

	var biasEnergy mat.Dense
	biasEnergy.Mul(m.inputBias.T(), input)

	var predictorEnergy mat.Dense
	predictorEnergy.Mul(m.predictors, input)

	// unnormalized per-component log-scores for both candidate outputs
	logScore0 := mat.NewDense(k, n, nil)
	logScore1 := mat.NewDense(k, n, nil)
	for c := 0; c < k; c++ {
		prior := m.priors.AtVec(c)
		outBias := m.outputBias.AtVec(c)
		for j := 0; j < n; j++ {
			s0 := featureEnergy.At(c, j) + biasEnergy.At(c, j) + prior
			logScore0.Set(c, j, s0)
			logScore1.Set(c, j, s0+predictorEnergy.At(c, j)+outBias)
		}
	}

	logProb0 = logSumExpCols(logScore0)
	logProb1 = logSumExpCols(logScore1)

	for j := 0; j < n; j++ {
		logNorm := logSumExp2(logProb0[j], logProb1[j])
		logProb0[j] -= logNorm
		logProb1[j] -= logNorm
	}
	return logProb0, logProb1
}

// LogLikelihood returns the normalized conditional log-likelihood, in nats,
// of each example column.
func (m *MCBM) LogLikelihood(input, output mat.Matrix) ([]float64, error) {
	in, out, err := m.validateData("MCBM.LogLikelihood", input, output)
	if err != nil {
		return nil, err
	}

	logProb0, logProb1 := m.condLogProbs(in)

	loglik := make([]float64, len(logProb0))
	for j := range loglik {
		y := out.At(0, j)
		loglik[j] = y*logProb1[j] + (1.-y)*logProb0[j]
	}
	return loglik, nil
}

// Evaluate returns the average negative conditional log-likelihood in bits
// per output component. Lower is better; an uninformed model scores close
// to 1 bit.
func (m *MCBM) Evaluate(input, output mat.Matrix) (float64, error) {
	loglik, err := m.LogLikelihood(input, output)
	if err != nil {
		return 0, err
	}
	n := float64(len(loglik))
	return -floats.Sum(loglik) / n / math.Ln2 / float64(m.DimOut()), nil
}

// PredictProba returns a 1 x N matrix with the conditional probability of
// output 1 for each input column.
func (m *MCBM) PredictProba(input mat.Matrix) (*mat.Dense, error) {
	in, err := m.validateInput("MCBM.PredictProba", input)
	if err != nil {
		return nil, err
	}

	_, logProb1 := m.condLogProbs(in)

	proba := mat.NewDense(1, len(logProb1), nil)
	for j, lp := range logProb1 {
		proba.Set(0, j, math.Exp(lp))
	}
	return proba, nil
}

// Sample draws one binary output per input column, each an independent
// Bernoulli draw with the model's conditional probability of a 1.
func (m *MCBM) Sample(input mat.Matrix) (*mat.Dense, error) {
	in, err := m.validateInput("MCBM.Sample", input)
	if err != nil {
		return nil, err
	}

	_, logProb1 := m.condLogProbs(in)

	output := mat.NewDense(1, len(logProb1), nil)
	for j, lp := range logProb1 {
		if m.rng.Float64() < math.Exp(lp) {
			output.Set(0, j, 1.)
		}
	}
	return output, nil
}
