package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score はモデルの決定係数（R²）を計算する
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor は回帰モデルのインターフェース
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Transformer はデータ変換器のインターフェース
type Transformer interface {
	// Fit は訓練データから変換に必要な統計量を学習する
	Fit(X mat.Matrix) error
	// Transform は学習済みの統計量でデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)
}
