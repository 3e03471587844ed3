// Package metrics は確率的二値分類モデルの評価指標を提供する
package metrics

import (
	"math"

	"github.com/YuminosukeSato/gocmt/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LogLoss は二値分類の対数損失（binary cross-entropy、単位はnat）を計算する
// 予測確率は log(0) を避けるため [eps, 1-eps] にクリップされる
func LogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}

	if yProb.Len() != n {
		return 0, errors.NewDimensionError("LogLoss", n, yProb.Len(), 0)
	}

	const eps = 1e-15

	// LogLoss = -(1/n) * Σ [y*log(p) + (1-y)*log(1-p)]
	var sum float64
	for i := 0; i < n; i++ {
		p := yProb.AtVec(i)
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		y := yTrue.AtVec(i)
		sum -= y*math.Log(p) + (1-y)*math.Log(1-p)
	}

	return sum / float64(n), nil
}

// Accuracy は二値ラベルの正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	var correct int
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}
