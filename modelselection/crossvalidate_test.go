package modelselection

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gboost-ml/gboost/core/model"
	"github.com/gboost-ml/gboost/linear"
)

// linearData builds y = 2·x₀ + 3·x₁ + 1 with a little noise.
func linearData(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	r := rand.New(rand.NewPCG(seed, seed))

	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := r.Float64()
		x1 := r.Float64()
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		y.Set(i, 0, 2*x0+3*x1+1+0.01*r.NormFloat64())
	}
	return X, y
}

func TestCrossValidate(t *testing.T) {
	X, y := linearData(100, 42)

	result, err := CrossValidate(
		func() model.Regressor { return linear.NewLinearRegression() },
		X, y,
		NewKFold(5, true, 42),
		nil,
	)
	if err != nil {
		t.Fatalf("CrossValidate() error = %v", err)
	}

	if len(result.TestScores) != 5 {
		t.Fatalf("got %d test scores, want 5", len(result.TestScores))
	}
	if len(result.TrainScores) != 5 {
		t.Fatalf("got %d train scores, want 5", len(result.TrainScores))
	}

	// The data is linear with tiny noise, so every fold's MSE must be tiny.
	for i, score := range result.TestScores {
		if score > 0.01 {
			t.Errorf("fold %d test MSE = %v, want < 0.01 on near-linear data", i, score)
		}
	}
}

func TestCrossValidateDeterminism(t *testing.T) {
	X, y := linearData(60, 3)
	factory := func() model.Regressor { return linear.NewLinearRegression() }

	a, err := CrossValidate(factory, X, y, NewKFold(4, true, 11), nil)
	if err != nil {
		t.Fatalf("CrossValidate() error = %v", err)
	}
	b, err := CrossValidate(factory, X, y, NewKFold(4, true, 11), nil)
	if err != nil {
		t.Fatalf("CrossValidate() error = %v", err)
	}

	for i := range a.TestScores {
		if a.TestScores[i] != b.TestScores[i] {
			t.Fatalf("fold %d scores differ with identical seeds: %v vs %v",
				i, a.TestScores[i], b.TestScores[i])
		}
	}
}

func TestCrossValidateCustomScorer(t *testing.T) {
	X, y := linearData(50, 8)

	maxAbs := func(yTrue, yPred mat.Matrix) (float64, error) {
		r, _ := yTrue.Dims()
		worst := 0.0
		for i := 0; i < r; i++ {
			if diff := math.Abs(yTrue.At(i, 0) - yPred.At(i, 0)); diff > worst {
				worst = diff
			}
		}
		return worst, nil
	}

	result, err := CrossValidate(
		func() model.Regressor { return linear.NewLinearRegression() },
		X, y,
		NewKFold(5, false, 0),
		maxAbs,
	)
	if err != nil {
		t.Fatalf("CrossValidate() error = %v", err)
	}
	for i, score := range result.TestScores {
		if score > 0.1 {
			t.Errorf("fold %d max abs error = %v, want < 0.1 on near-linear data", i, score)
		}
	}
}

func TestResultStatistics(t *testing.T) {
	result := &Result{TestScores: []float64{1, 2, 3, 4, 5}}

	if got := result.MeanScore(); math.Abs(got-3) > 1e-12 {
		t.Errorf("MeanScore() = %v, want 3", got)
	}
	// Sample standard deviation of 1..5 is sqrt(2.5).
	if got := result.StdScore(); math.Abs(got-math.Sqrt(2.5)) > 1e-12 {
		t.Errorf("StdScore() = %v, want %v", got, math.Sqrt(2.5))
	}
}

func TestResultStatisticsEmpty(t *testing.T) {
	result := &Result{}
	if got := result.MeanScore(); got != 0 {
		t.Errorf("MeanScore() on empty result = %v, want 0", got)
	}
	if got := result.StdScore(); got != 0 {
		t.Errorf("StdScore() on empty result = %v, want 0", got)
	}
}
