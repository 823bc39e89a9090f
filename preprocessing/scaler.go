// Package preprocessing はデータ前処理のユーティリティを提供します。
package preprocessing

import (
	"math"

	"github.com/gboost-ml/gboost/core/model"
	"github.com/gboost-ml/gboost/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// パラメータ:
//   - withMean: 平均を引くかどうか
//   - withStd: 標準偏差で割るかどうか
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	// 平均を計算
	for j := 0; j < c; j++ {
		if !s.WithMean {
			s.Mean[j] = 0.0
			continue
		}
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		s.Mean[j] = sum / float64(r)
	}

	// 標準偏差を計算
	for j := 0; j < c; j++ {
		if !s.WithStd {
			s.Scale[j] = 1.0
			continue
		}
		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - s.Mean[j]
			sumSquares += diff * diff
		}
		s.Scale[j] = math.Sqrt(sumSquares / float64(r))

		// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
		if math.Abs(s.Scale[j]) < 1e-8 {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}
