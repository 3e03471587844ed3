package mcbm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// logSumExpCols returns, for each column j of a, log(Σ_i exp(a[i,j])),
// stabilized by subtracting the column maximum before exponentiating.
// A single-row matrix reduces to the identity; a column of identical
// values reduces to that value plus log of the row count.
func logSumExpCols(a *mat.Dense) []float64 {
	r, c := a.Dims()
	out := make([]float64, c)
	for j := 0; j < c; j++ {
		maxVal := math.Inf(-1)
		for i := 0; i < r; i++ {
			if v := a.At(i, j); v > maxVal {
				maxVal = v
			}
		}
		if math.IsInf(maxVal, -1) {
			out[j] = maxVal
			continue
		}
		var sum float64
		for i := 0; i < r; i++ {
			sum += math.Exp(a.At(i, j) - maxVal)
		}
		out[j] = maxVal + math.Log(sum)
	}
	return out
}

// logSumExp2 is the stabilized log(exp(a) + exp(b)).
func logSumExp2(a, b float64) float64 {
	maxVal := math.Max(a, b)
	if math.IsInf(maxVal, -1) {
		return maxVal
	}
	return maxVal + math.Log(math.Exp(a-maxVal)+math.Exp(b-maxVal))
}
