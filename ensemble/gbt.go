// Package ensemble implements gradient boosted regression trees.
//
// A GradientBoostingTree builds a stage-wise additive model: starting from the
// mean of the targets, each round fits a regression tree to the negative
// gradient of the loss at the current prediction and moves every training row
// by a shrunk, loss-optimal step for the leaf it falls into.
package ensemble

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gboost-ml/gboost/core/model"
	"github.com/gboost-ml/gboost/pkg/errors"
	"github.com/gboost-ml/gboost/pkg/log"
	"github.com/gboost-ml/gboost/tree"
)

// GradientBoostingTree is a gradient boosted ensemble of regression trees.
//
// Training is deterministic: the same data and parameters always produce the
// same ensemble, and Predict never mutates fitted state. Calling Fit again
// discards the previous ensemble and trains from scratch.
type GradientBoostingTree struct {
	model.BaseEstimator

	// NEstimators is the number of boosting rounds. One tree per round.
	NEstimators int

	// LearningRate shrinks the contribution of each tree.
	LearningRate float64

	// MaxDepth is the depth limit shared by every tree in the ensemble.
	MaxDepth int

	// Loss selects the loss function to optimize.
	Loss Loss

	initPrediction float64
	trees          []*tree.DecisionTreeRegressor
	trainLoss      []float64
	nFeatures      int

	logger log.Logger
}

// Option configures a GradientBoostingTree.
type Option func(*GradientBoostingTree)

// WithNEstimators sets the number of boosting rounds.
func WithNEstimators(n int) Option {
	return func(g *GradientBoostingTree) {
		g.NEstimators = n
	}
}

// WithLearningRate sets the shrinkage factor.
func WithLearningRate(lr float64) Option {
	return func(g *GradientBoostingTree) {
		g.LearningRate = lr
	}
}

// WithMaxDepth sets the depth limit of the individual trees.
func WithMaxDepth(depth int) Option {
	return func(g *GradientBoostingTree) {
		g.MaxDepth = depth
	}
}

// WithLoss sets the loss function to optimize.
func WithLoss(loss Loss) Option {
	return func(g *GradientBoostingTree) {
		g.Loss = loss
	}
}

// NewGradientBoostingTree creates an ensemble with scikit-learn compatible
// defaults: 100 rounds, learning rate 0.1, depth 3, squared error loss.
func NewGradientBoostingTree(opts ...Option) *GradientBoostingTree {
	g := &GradientBoostingTree{
		NEstimators:  100,
		LearningRate: 0.1,
		MaxDepth:     3,
		Loss:         SquaredError,
		logger:       log.GetLoggerWithName("ensemble.gbt"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fit trains the ensemble on X (n×d) and y (n×1).
//
// The initial prediction is the mean of y. Each round fits a fresh tree to the
// negative gradient of the loss at the running prediction, then replaces every
// leaf's contribution with the loss-optimal step for the rows that reached it
// (grouped by leaf identity, not by predicted value) scaled by LearningRate.
func (g *GradientBoostingTree) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GradientBoostingTree.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("GradientBoostingTree.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("GradientBoostingTree.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("GradientBoostingTree.Fit", "y must be a column vector")
	}
	if g.NEstimators <= 0 {
		return errors.NewValidationError("n_estimators", "must be a positive integer", g.NEstimators)
	}
	if g.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", g.LearningRate)
	}
	if g.MaxDepth <= 0 {
		return errors.NewValidationError("max_depth", "must be a positive integer", g.MaxDepth)
	}

	// Resolve the loss before any training work so an unsupported loss fails
	// fast and leaves the model unfitted.
	spec, ok := lossTable[g.Loss]
	if !ok {
		return errors.NewUnsupportedLossError("GradientBoostingTree.Fit", g.Loss.String())
	}

	if g.logger == nil {
		g.logger = log.GetLoggerWithName("ensemble.gbt")
	}

	g.Reset()
	g.nFeatures = c
	g.trees = make([]*tree.DecisionTreeRegressor, 0, g.NEstimators)
	g.trainLoss = make([]float64, 0, g.NEstimators)

	targets := make([]float64, r)
	for i := 0; i < r; i++ {
		targets[i] = y.At(i, 0)
	}

	g.initPrediction = mean(targets)

	running := make([]float64, r)
	for i := range running {
		running[i] = g.initPrediction
	}

	g.logger.Info("Training started",
		log.ModelNameKey, "GradientBoostingTree",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.EstimatorsKey, g.NEstimators,
		log.LearningRateKey, g.LearningRate,
		log.MaxDepthKey, g.MaxDepth,
	)
	start := time.Now()

	residual := make([]float64, r)
	for round := 0; round < g.NEstimators; round++ {
		spec.negativeGradient(targets, running, residual)

		t := tree.NewDecisionTreeRegressor(tree.WithMaxDepth(g.MaxDepth))
		if err := t.Fit(X, mat.NewDense(r, 1, residual)); err != nil {
			return errors.Wrapf(err, "GradientBoostingTree.Fit: round %d", round)
		}
		g.trees = append(g.trees, t)

		leaves, err := t.Apply(X)
		if err != nil {
			return errors.Wrapf(err, "GradientBoostingTree.Fit: round %d", round)
		}

		groups := make([][]int, t.NumLeaves())
		for i, leaf := range leaves {
			groups[leaf] = append(groups[leaf], i)
		}
		for _, rows := range groups {
			if len(rows) == 0 {
				continue
			}
			gamma := spec.leafStep(residual, rows)
			for _, i := range rows {
				running[i] += g.LearningRate * gamma
			}
		}

		if err := errors.CheckNumericalStability("running_prediction", running, round); err != nil {
			return err
		}

		mse := 0.0
		for i := range targets {
			diff := targets[i] - running[i]
			mse += diff * diff
		}
		mse /= float64(r)
		g.trainLoss = append(g.trainLoss, mse)

		g.logger.Debug("Boosting round completed",
			log.IterationKey, round,
			log.LossKey, mse,
		)
	}

	g.SetFitted()

	g.logger.Info("Training completed",
		log.ModelNameKey, "GradientBoostingTree",
		log.EstimatorsKey, len(g.trees),
		log.LossKey, g.trainLoss[len(g.trainLoss)-1],
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// Predict returns the n×1 matrix of ensemble predictions: the initial
// prediction plus the shrunk sum of every tree's prediction.
func (g *GradientBoostingTree) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingTree", "Predict")
	}

	r, c := X.Dims()
	if c != g.nFeatures {
		return nil, errors.NewDimensionError("GradientBoostingTree.Predict", g.nFeatures, c, 1)
	}

	predictions := make([]float64, r)
	for i := range predictions {
		predictions[i] = g.initPrediction
	}

	for _, t := range g.trees {
		p, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < r; i++ {
			predictions[i] += g.LearningRate * p.At(i, 0)
		}
	}

	return mat.NewDense(r, 1, predictions), nil
}

// Score returns the coefficient of determination R² of the prediction.
func (g *GradientBoostingTree) Score(X, y mat.Matrix) (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GradientBoostingTree", "Score")
	}

	yPred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		diff := yTrue - yPred.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += diff * diff
	}

	if tss == 0 {
		return 0, errors.Newf("total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// TrainLoss returns the per-round training loss (MSE against the running
// prediction) recorded during the last Fit. The returned slice is a copy.
func (g *GradientBoostingTree) TrainLoss() []float64 {
	out := make([]float64, len(g.trainLoss))
	copy(out, g.trainLoss)
	return out
}

// InitPrediction returns the constant initial prediction (the mean of the
// training targets). Zero if the model is not fitted.
func (g *GradientBoostingTree) InitPrediction() float64 {
	return g.initPrediction
}

// NumTrees returns the number of fitted trees in the ensemble.
func (g *GradientBoostingTree) NumTrees() int {
	return len(g.trees)
}

// Tree returns the fitted tree of the given boosting round, for inspection
// and rendering.
func (g *GradientBoostingTree) Tree(i int) (*tree.DecisionTreeRegressor, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingTree", "Tree")
	}
	if i < 0 || i >= len(g.trees) {
		return nil, errors.NewValidationError("tree_index", "out of range", i)
	}
	return g.trees[i], nil
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
