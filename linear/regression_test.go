package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLinearRegressionFit(t *testing.T) {
	// y = 2x + 1 exactly.
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if math.Abs(lr.Weights.AtVec(0)-2) > 1e-8 {
		t.Errorf("weight = %v, want 2", lr.Weights.AtVec(0))
	}
	if math.Abs(lr.Intercept-1) > 1e-8 {
		t.Errorf("intercept = %v, want 1", lr.Intercept)
	}

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	want := []float64{11, 13}
	for i, w := range want {
		if math.Abs(pred.At(i, 0)-w) > 1e-8 {
			t.Errorf("prediction[%d] = %v, want %v", i, pred.At(i, 0), w)
		}
	}
}

func TestLinearRegressionMultipleFeatures(t *testing.T) {
	// y = x₀ + 2·x₁ - 1, six points so the normal equations are well posed.
	X := mat.NewDense(6, 2, []float64{
		1, 1,
		2, 1,
		1, 2,
		3, 2,
		2, 3,
		4, 1,
	})
	y := mat.NewDense(6, 1, nil)
	for i := 0; i < 6; i++ {
		y.Set(i, 0, X.At(i, 0)+2*X.At(i, 1)-1)
	}

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(score-1) > 1e-8 {
		t.Errorf("Score() = %v, want 1 on noiseless linear data", score)
	}
}

func TestLinearRegressionValidation(t *testing.T) {
	lr := NewLinearRegression()

	tests := []struct {
		name string
		X    *mat.Dense
		y    *mat.Dense
	}{
		{
			name: "row count mismatch",
			X:    mat.NewDense(3, 1, []float64{1, 2, 3}),
			y:    mat.NewDense(2, 1, []float64{1, 2}),
		},
		{
			name: "y not a column vector",
			X:    mat.NewDense(3, 1, []float64{1, 2, 3}),
			y:    mat.NewDense(3, 2, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := lr.Fit(tt.X, tt.y); err == nil {
				t.Error("Fit() expected error, got nil")
			}
		})
	}
}

func TestLinearRegressionNotFitted(t *testing.T) {
	lr := NewLinearRegression()
	if _, err := lr.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Predict() on unfitted model expected error, got nil")
	}
	if _, err := lr.Score(mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Score() on unfitted model expected error, got nil")
	}
}
