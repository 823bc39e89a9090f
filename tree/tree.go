// Package tree implements a greedy regression tree learner with exhaustive
// axis-aligned split search. It is the base learner for the ensemble package.
package tree

import (
	"sort"

	"github.com/gboost-ml/gboost/core/model"
	"github.com/gboost-ml/gboost/core/parallel"
	"github.com/gboost-ml/gboost/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// errDegenerateSplit reports that no split produces two non-empty partitions
// at a node. It never escapes the builder: the node falls back to a leaf.
var errDegenerateSplit = errors.New("no valid split")

// nodeKind discriminates leaf and internal nodes.
type nodeKind uint8

const (
	leafKind nodeKind = iota
	internalKind
)

// node is one vertex of a fitted tree. A leaf holds the mean target of its
// region; an internal node holds a split and owns exactly two children.
type node struct {
	kind nodeKind

	// Leaf fields.
	value  float64
	leafID int

	// Internal fields. Rows with X[feature] <= threshold go left.
	feature   int
	threshold float64
	left      *node
	right     *node
}

// DecisionTreeRegressor is a regression tree fitted by recursive binary
// splitting. At every node it searches all features and all distinct observed
// thresholds for the split minimizing the summed squared error of the two
// sides. Ties keep the first candidate in (feature, ascending threshold) order.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	// MaxDepth is the depth limit; nodes at this depth become leaves.
	MaxDepth int

	root      *node
	nFeatures int
	nLeaves   int
	depth     int
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithMaxDepth sets the maximum tree depth.
func WithMaxDepth(depth int) Option {
	return func(d *DecisionTreeRegressor) {
		d.MaxDepth = depth
	}
}

// NewDecisionTreeRegressor creates a regression tree with default parameters.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	d := &DecisionTreeRegressor{
		MaxDepth: 3,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fit builds the tree on the given samples. X is an n×d feature matrix and y
// an n×1 target vector. Any previously fitted tree is discarded.
func (d *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}
	if d.MaxDepth <= 0 {
		return errors.NewValidationError("max_depth", "must be a positive integer", d.MaxDepth)
	}

	targets := make([]float64, r)
	for i := 0; i < r; i++ {
		targets[i] = y.At(i, 0)
	}

	rows := make([]int, r)
	for i := range rows {
		rows[i] = i
	}

	d.Reset()
	d.nFeatures = c
	d.nLeaves = 0
	d.depth = 0
	d.root = d.build(X, targets, rows, 0)
	d.SetFitted()

	return nil
}

// build recursively grows the tree over the given row subset.
func (d *DecisionTreeRegressor) build(X mat.Matrix, y []float64, rows []int, depth int) *node {
	if depth > d.depth {
		d.depth = depth
	}

	if depth >= d.MaxDepth || constantTargets(y, rows) {
		return d.newLeaf(meanAt(y, rows))
	}

	best, err := d.findBestSplit(X, y, rows)
	if err != nil {
		// Degenerate region: every candidate split leaves one side empty.
		return d.newLeaf(meanAt(y, rows))
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, i := range rows {
		if X.At(i, best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		kind:      internalKind,
		feature:   best.feature,
		threshold: best.threshold,
		left:      d.build(X, y, left, depth+1),
		right:     d.build(X, y, right, depth+1),
	}
}

func (d *DecisionTreeRegressor) newLeaf(value float64) *node {
	n := &node{kind: leafKind, value: value, leafID: d.nLeaves}
	d.nLeaves++
	return n
}

// splitCandidate is the best split found for a single feature.
type splitCandidate struct {
	ok        bool
	feature   int
	threshold float64
	loss      float64
}

// findBestSplit searches every feature and every distinct observed value for
// the split minimizing SSE_left + SSE_right. The per-feature scans run in
// parallel; the reduction walks features in ascending order with a strict
// comparison, so the winner is deterministic and ties keep the candidate
// encountered first.
func (d *DecisionTreeRegressor) findBestSplit(X mat.Matrix, y []float64, rows []int) (splitCandidate, error) {
	_, cols := X.Dims()

	candidates := make([]splitCandidate, cols)
	parallel.ParallelizeWithThreshold(cols, 1, func(start, end int) {
		for q := start; q < end; q++ {
			candidates[q] = scanFeature(X, y, rows, q)
		}
	})

	best := splitCandidate{}
	for _, cand := range candidates {
		if !cand.ok {
			continue
		}
		if !best.ok || cand.loss < best.loss {
			best = cand
		}
	}
	if !best.ok {
		return splitCandidate{}, errDegenerateSplit
	}
	return best, nil
}

// scanFeature finds the loss-minimizing threshold for one feature column.
// Rows are sorted by feature value once; prefix sums then give both sides'
// SSE for every distinct threshold in a single pass.
func scanFeature(X mat.Matrix, y []float64, rows []int, feature int) splitCandidate {
	n := len(rows)
	if n < 2 {
		return splitCandidate{}
	}

	type pair struct {
		value  float64
		target float64
	}
	pairs := make([]pair, n)
	var totalSum, totalSumSq float64
	for i, row := range rows {
		t := y[row]
		pairs[i] = pair{value: X.At(row, feature), target: t}
		totalSum += t
		totalSumSq += t * t
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].value < pairs[b].value })

	best := splitCandidate{feature: feature}
	var leftSum, leftSumSq float64
	for i := 0; i < n-1; i++ {
		leftSum += pairs[i].target
		leftSumSq += pairs[i].target * pairs[i].target

		// Only the last row of a run of equal values is a usable threshold:
		// the left side is "<= value", so splitting inside a run is the same
		// split, and the largest value would leave the right side empty.
		if pairs[i].value == pairs[i+1].value {
			continue
		}

		nLeft := float64(i + 1)
		nRight := float64(n - i - 1)
		rightSum := totalSum - leftSum
		rightSumSq := totalSumSq - leftSumSq

		// SSE = Σt² - (Σt)²/n per side.
		loss := (leftSumSq - leftSum*leftSum/nLeft) + (rightSumSq - rightSum*rightSum/nRight)

		if !best.ok || loss < best.loss {
			best.ok = true
			best.threshold = pairs[i].value
			best.loss = loss
		}
	}
	return best
}

// Predict routes every row of X from the root to a leaf and returns the n×1
// matrix of leaf values.
func (d *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !d.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != d.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", d.nFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, d.route(X, i).value)
	}
	return predictions, nil
}

// Apply routes every row of X to a leaf and returns the leaf index of each
// row. Leaf indices are assigned in build order and are stable for a fitted
// tree; the ensemble uses them to group rows by leaf identity.
func (d *DecisionTreeRegressor) Apply(X mat.Matrix) ([]int, error) {
	if !d.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Apply")
	}

	r, c := X.Dims()
	if c != d.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Apply", d.nFeatures, c, 1)
	}

	leaves := make([]int, r)
	for i := 0; i < r; i++ {
		leaves[i] = d.route(X, i).leafID
	}
	return leaves, nil
}

// route descends iteratively from the root to the leaf covering row i.
func (d *DecisionTreeRegressor) route(X mat.Matrix, i int) *node {
	cur := d.root
	for cur.kind == internalKind {
		if X.At(i, cur.feature) <= cur.threshold {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	return cur
}

// NumLeaves returns the number of leaves of the fitted tree.
func (d *DecisionTreeRegressor) NumLeaves() int {
	return d.nLeaves
}

// Depth returns the depth of the fitted tree. A single leaf has depth 0.
func (d *DecisionTreeRegressor) Depth() int {
	return d.depth
}

func constantTargets(y []float64, rows []int) bool {
	first := y[rows[0]]
	for _, i := range rows[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

func meanAt(y []float64, rows []int) float64 {
	sum := 0.0
	for _, i := range rows {
		sum += y[i]
	}
	return sum / float64(len(rows))
}
