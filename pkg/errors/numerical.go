package errors

import (
	"fmt"
	"math"
)

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaNやInfの発生を検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "residual_update", "leaf_value"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("gboost: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return WithStack(err)
}

// CheckNumericalStability は値にNaNまたはInfが含まれていないかを検査し、
// 数値的不安定性が検出された場合にエラーを返します。
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar は単一のスカラー値の数値的不安定性を検査します。
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// SafeDivide はゼロ除算を避けながら除算を行います。
// 分母がゼロに近い場合は0を返します。
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}
