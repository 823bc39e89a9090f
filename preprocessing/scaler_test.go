package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	s := NewStandardScalerDefault()
	scaled, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// Each column must come out with mean 0 and (population) std 1.
	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		var sum, sumSq float64
		for i := 0; i < r; i++ {
			v := scaled.At(i, j)
			sum += v
			sumSq += v * v
		}
		mean := sum / float64(r)
		std := math.Sqrt(sumSq/float64(r) - mean*mean)

		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}
		if math.Abs(std-1) > 1e-10 {
			t.Errorf("column %d std = %v, want 1", j, std)
		}
	}
}

func TestStandardScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.5, -2,
		0.5, 4,
		-3, 7,
	})

	s := NewStandardScalerDefault()
	scaled, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	restored, err := s.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform() error = %v", err)
	}

	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(restored.At(i, j)-X.At(i, j)) > 1e-10 {
				t.Errorf("restored[%d,%d] = %v, want %v", i, j, restored.At(i, j), X.At(i, j))
			}
		}
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	// A zero-variance column must not blow up: the scale falls back to 1.
	X := mat.NewDense(3, 1, []float64{5, 5, 5})

	s := NewStandardScalerDefault()
	scaled, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := scaled.At(i, 0); got != 0 {
			t.Errorf("scaled[%d] = %v, want 0 for a constant column", i, got)
		}
	}
}

func TestStandardScalerWithoutCentering(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 4})

	s := NewStandardScaler(false, false)
	scaled, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if scaled.At(i, 0) != X.At(i, 0) {
			t.Errorf("identity transform changed value at %d", i)
		}
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	s := NewStandardScalerDefault()
	if _, err := s.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Transform() on unfitted scaler expected error, got nil")
	}
	if _, err := s.InverseTransform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("InverseTransform() on unfitted scaler expected error, got nil")
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	s := NewStandardScalerDefault()
	if err := s.Fit(mat.NewDense(3, 2, nil)); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := s.Transform(mat.NewDense(3, 3, nil)); err == nil {
		t.Error("Transform() with wrong feature count expected error, got nil")
	}
}
