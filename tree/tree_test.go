package tree

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFitStepFunction(t *testing.T) {
	// A single feature with a clean step in the target: the depth-1 tree must
	// split between 2 and 3 and emit the two group means as leaves.
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{1, 1, 10, 10})

	d := NewDecisionTreeRegressor(WithMaxDepth(1))
	if err := d.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if d.root.kind != internalKind {
		t.Fatal("root should be an internal node")
	}
	if d.root.feature != 0 {
		t.Errorf("root split feature = %d, want 0", d.root.feature)
	}
	if d.root.threshold < 2 || d.root.threshold >= 3 {
		t.Errorf("root split threshold = %v, want in [2, 3)", d.root.threshold)
	}
	if d.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", d.Depth())
	}
	if d.NumLeaves() != 2 {
		t.Errorf("NumLeaves() = %d, want 2", d.NumLeaves())
	}

	pred, err := d.Predict(mat.NewDense(4, 1, []float64{1.5, 2.0, 2.5, 3.5}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	want := []float64{1, 1, 10, 10}
	for i, w := range want {
		if got := pred.At(i, 0); got != w {
			t.Errorf("prediction[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestFitConstantTargets(t *testing.T) {
	// All targets equal: the builder must emit a single leaf regardless of
	// how separable the features look.
	X := mat.NewDense(5, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
		5, 50,
	})
	y := mat.NewDense(5, 1, []float64{7, 7, 7, 7, 7})

	d := NewDecisionTreeRegressor(WithMaxDepth(4))
	if err := d.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if d.root.kind != leafKind {
		t.Fatal("root should be a leaf for constant targets")
	}
	if d.NumLeaves() != 1 {
		t.Errorf("NumLeaves() = %d, want 1", d.NumLeaves())
	}
	if d.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", d.Depth())
	}

	pred, err := d.Predict(mat.NewDense(1, 2, []float64{100, -100}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := pred.At(0, 0); got != 7 {
		t.Errorf("prediction = %v, want 7", got)
	}
}

func TestFitDegenerateFeatures(t *testing.T) {
	// Every feature is constant, so no split has two non-empty sides. The
	// tree must fall back to a mean leaf instead of failing.
	X := mat.NewDense(3, 2, []float64{
		5, 5,
		5, 5,
		5, 5,
	})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	d := NewDecisionTreeRegressor(WithMaxDepth(3))
	if err := d.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if d.root.kind != leafKind {
		t.Fatal("root should be a leaf when no valid split exists")
	}
	pred, err := d.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := pred.At(0, 0); math.Abs(got-2) > 1e-12 {
		t.Errorf("prediction = %v, want 2 (mean of targets)", got)
	}
}

// naiveBestLoss recomputes the minimal SSE over every (feature, threshold)
// pair the slow way, as a reference for the prefix-sum scan.
func naiveBestLoss(X *mat.Dense, y []float64) float64 {
	n, d := X.Dims()
	best := math.Inf(1)
	for feature := 0; feature < d; feature++ {
		for c := 0; c < n; c++ {
			threshold := X.At(c, feature)
			var left, right []float64
			for i := 0; i < n; i++ {
				if X.At(i, feature) <= threshold {
					left = append(left, y[i])
				} else {
					right = append(right, y[i])
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			loss := sse(left) + sse(right)
			if loss < best {
				best = loss
			}
		}
	}
	return best
}

func sse(xs []float64) float64 {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	out := 0.0
	for _, x := range xs {
		out += (x - mean) * (x - mean)
	}
	return out
}

func TestSplitOptimality(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))

	const n, d = 40, 3
	X := mat.NewDense(n, d, nil)
	y := make([]float64, n)
	rows := make([]int, n)
	for i := 0; i < n; i++ {
		rows[i] = i
		y[i] = r.NormFloat64()
		for j := 0; j < d; j++ {
			X.Set(i, j, r.Float64())
		}
	}

	dt := NewDecisionTreeRegressor()
	best, err := dt.findBestSplit(X, y, rows)
	if err != nil {
		t.Fatalf("findBestSplit() error = %v", err)
	}

	want := naiveBestLoss(X, y)
	if math.Abs(best.loss-want) > 1e-9 {
		t.Errorf("best split loss = %v, exhaustive reference = %v", best.loss, want)
	}
}

func TestSplitTieBreak(t *testing.T) {
	// Two identical feature columns produce identical candidate losses; the
	// winner must be the lower feature index.
	X := mat.NewDense(4, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
		4, 4,
	})
	y := mat.NewDense(4, 1, []float64{0, 0, 5, 5})

	d := NewDecisionTreeRegressor(WithMaxDepth(1))
	if err := d.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if d.root.feature != 0 {
		t.Errorf("tie broken to feature %d, want 0", d.root.feature)
	}
}

func TestDepthBound(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 11))

	const n, maxDepth = 64, 3
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, r.Float64())
		X.Set(i, 1, r.Float64())
		y.Set(i, 0, r.NormFloat64())
	}

	d := NewDecisionTreeRegressor(WithMaxDepth(maxDepth))
	if err := d.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		if depth > maxDepth {
			t.Fatalf("node at depth %d exceeds limit %d", depth, maxDepth)
		}
		if n.kind == internalKind {
			walk(n.left, depth+1)
			walk(n.right, depth+1)
		}
	}
	walk(d.root, 0)

	if d.Depth() > maxDepth {
		t.Errorf("Depth() = %d, want <= %d", d.Depth(), maxDepth)
	}
}

func TestPartitionCompleteness(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 3))

	const n = 50
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, r.Float64())
		X.Set(i, 1, r.Float64())
		y.Set(i, 0, r.NormFloat64())
	}

	d := NewDecisionTreeRegressor(WithMaxDepth(4))
	if err := d.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Every row must land in exactly one leaf, and leaf IDs must cover
	// [0, NumLeaves) without gaps beyond leaves holding no training row.
	leaves, err := d.Apply(X)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(leaves) != n {
		t.Fatalf("Apply() returned %d assignments, want %d", len(leaves), n)
	}
	for i, leaf := range leaves {
		if leaf < 0 || leaf >= d.NumLeaves() {
			t.Errorf("row %d assigned to leaf %d, want in [0, %d)", i, leaf, d.NumLeaves())
		}
	}
}

func TestFitDeterminism(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 5))

	const n, dCols = 80, 4
	X := mat.NewDense(n, dCols, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		y.Set(i, 0, r.NormFloat64())
		for j := 0; j < dCols; j++ {
			X.Set(i, j, r.Float64())
		}
	}

	a := NewDecisionTreeRegressor(WithMaxDepth(4))
	b := NewDecisionTreeRegressor(WithMaxDepth(4))
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predA, err := a.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	predB, err := b.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	for i := 0; i < n; i++ {
		if predA.At(i, 0) != predB.At(i, 0) {
			t.Fatalf("predictions diverge at row %d: %v vs %v", i, predA.At(i, 0), predB.At(i, 0))
		}
	}
}

func TestRefitDiscardsPreviousTree(t *testing.T) {
	X1 := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y1 := mat.NewDense(4, 1, []float64{1, 1, 10, 10})
	X2 := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y2 := mat.NewDense(4, 1, []float64{5, 5, 5, 5})

	d := NewDecisionTreeRegressor(WithMaxDepth(2))
	if err := d.Fit(X1, y1); err != nil {
		t.Fatalf("first Fit() error = %v", err)
	}
	if err := d.Fit(X2, y2); err != nil {
		t.Fatalf("second Fit() error = %v", err)
	}

	pred, err := d.Predict(mat.NewDense(1, 1, []float64{3.5}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := pred.At(0, 0); got != 5 {
		t.Errorf("prediction after refit = %v, want 5", got)
	}
	if d.NumLeaves() != 1 {
		t.Errorf("NumLeaves() after refit = %d, want 1", d.NumLeaves())
	}
}

func TestFitValidation(t *testing.T) {
	valid := mat.NewDense(3, 1, []float64{1, 2, 3})

	tests := []struct {
		name     string
		X        *mat.Dense
		y        *mat.Dense
		maxDepth int
	}{
		{
			name:     "row count mismatch",
			X:        valid,
			y:        mat.NewDense(2, 1, []float64{1, 2}),
			maxDepth: 3,
		},
		{
			name:     "y not a column vector",
			X:        valid,
			y:        mat.NewDense(3, 2, nil),
			maxDepth: 3,
		},
		{
			name:     "non-positive max depth",
			X:        valid,
			y:        mat.NewDense(3, 1, []float64{1, 2, 3}),
			maxDepth: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecisionTreeRegressor(WithMaxDepth(tt.maxDepth))
			if err := d.Fit(tt.X, tt.y); err == nil {
				t.Error("Fit() expected error, got nil")
			}
			if d.IsFitted() {
				t.Error("model should not be fitted after a failed Fit")
			}
		})
	}
}

func TestPredictNotFitted(t *testing.T) {
	d := NewDecisionTreeRegressor()
	if _, err := d.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Predict() on unfitted model expected error, got nil")
	}
	if _, err := d.Apply(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Apply() on unfitted model expected error, got nil")
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	d := NewDecisionTreeRegressor()
	if err := d.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if _, err := d.Predict(mat.NewDense(1, 3, nil)); err == nil {
		t.Error("Predict() with wrong feature count expected error, got nil")
	}
}
