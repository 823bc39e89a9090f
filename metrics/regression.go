// Package metrics は回帰モデルの評価指標を提供します。
package metrics

import (
	"math"

	"github.com/gboost-ml/gboost/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// MSEMatrix は列ベクトル形式（n×1行列）の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	// 入力検証
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	}

	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}

	if cTrue != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}

	// VecDenseに変換してMSEを計算
	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)

	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return MSE(yTrueVec, yPredVec)
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	// yTrueの平均を計算
	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}
