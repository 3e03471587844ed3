// Package mcbm implements mixtures of conditional Boltzmann machines:
// trainable conditional models of a binary output bit given a real- or
// binary-valued input vector.
//
// The conditional distribution is an energy model with numComponents
// latent mixture components. For each component c, the unnormalized
// log-score of input x and output y is
//
//	score(c, x, 0) = Σ_f weights[c,f]·(features[:,f]ᵀx)² + inputBias[:,c]ᵀx + priors[c]
//	score(c, x, 1) = score(c, x, 0) + predictors[c,:]x + outputBias[c]
//
// Components are marginalized and the two outputs normalized entirely in
// the log domain. Models are fitted by maximum likelihood with the L-BFGS
// method from gonum.org/v1/gonum/optimize, using the hand-derived analytic
// gradient implemented in this package; CheckGradient verifies that
// gradient against central finite differences.
//
// Data matrices hold one example per column: inputs are DimIn x N,
// outputs 1 x N with values 0 or 1.
package mcbm
