package mcbm

import (
	"github.com/YuminosukeSato/gocmt/pkg/errors"
)

// The flat parameter buffer concatenates the trainable groups in the fixed
// order priors, weights, features, predictors, inputBias, outputBias,
// each in row-major element order. Groups whose training flag is unset are
// omitted entirely. This layout is the wire contract with the optimizer and
// is shared by ParameterVector, SetParameterVector and the gradient buffer.

// NumParameters returns the length of the flat parameter buffer for the
// given training flags.
func (m *MCBM) NumParameters(params *Parameters) int {
	p := params.orDefaults()
	k, f, d := m.numComponents, m.numFeatures, m.dimIn

	n := 0
	if p.TrainPriors {
		n += k
	}
	if p.TrainWeights {
		n += k * f
	}
	if p.TrainFeatures {
		n += d * f
	}
	if p.TrainPredictors {
		n += k * d
	}
	if p.TrainInputBias {
		n += d * k
	}
	if p.TrainOutputBias {
		n += k
	}
	return n
}

// ParameterVector copies the trainable groups into a freshly allocated flat
// buffer. The caller owns the result.
func (m *MCBM) ParameterVector(params *Parameters) []float64 {
	p := params.orDefaults()

	x := make([]float64, 0, m.NumParameters(p))
	if p.TrainPriors {
		x = append(x, m.priors.RawVector().Data...)
	}
	if p.TrainWeights {
		x = append(x, m.weights.RawMatrix().Data...)
	}
	if p.TrainFeatures {
		x = append(x, m.features.RawMatrix().Data...)
	}
	if p.TrainPredictors {
		x = append(x, m.predictors.RawMatrix().Data...)
	}
	if p.TrainInputBias {
		x = append(x, m.inputBias.RawMatrix().Data...)
	}
	if p.TrainOutputBias {
		x = append(x, m.outputBias.RawVector().Data...)
	}
	return x
}

// SetParameterVector assigns the trainable groups from a flat buffer,
// leaving groups with unset flags untouched. A buffer whose length does not
// match the flag set is a contract violation.
func (m *MCBM) SetParameterVector(x []float64, params *Parameters) error {
	p := params.orDefaults()
	if want := m.NumParameters(p); len(x) != want {
		return errors.NewContractError("MCBM.SetParameterVector", "flat buffer length", want, len(x))
	}
	m.setParameterVector(x, p)
	return nil
}

// setParameterVector is SetParameterVector without the length check, for
// internal callers that already hold a buffer of the right size.
func (m *MCBM) setParameterVector(x []float64, p *Parameters) {
	offset := 0
	if p.TrainPriors {
		data := m.priors.RawVector().Data
		offset += copy(data, x[offset:offset+len(data)])
	}
	if p.TrainWeights {
		data := m.weights.RawMatrix().Data
		offset += copy(data, x[offset:offset+len(data)])
	}
	if p.TrainFeatures {
		data := m.features.RawMatrix().Data
		offset += copy(data, x[offset:offset+len(data)])
	}
	if p.TrainPredictors {
		data := m.predictors.RawMatrix().Data
		offset += copy(data, x[offset:offset+len(data)])
	}
	if p.TrainInputBias {
		data := m.inputBias.RawMatrix().Data
		offset += copy(data, x[offset:offset+len(data)])
	}
	if p.TrainOutputBias {
		data := m.outputBias.RawVector().Data
		copy(data, x[offset:offset+len(data)])
	}
}
