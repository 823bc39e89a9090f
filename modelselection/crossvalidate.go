package modelselection

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/gboost-ml/gboost/core/model"
	"github.com/gboost-ml/gboost/metrics"
	"github.com/gboost-ml/gboost/pkg/errors"
	"github.com/gboost-ml/gboost/pkg/log"
)

// ModelFactory builds a fresh, unfitted model for one resampling round.
// Each round gets its own instance so rounds can run concurrently.
type ModelFactory func() model.Regressor

// Scorer computes the evaluation loss between true and predicted n×1
// matrices. Lower is better. A nil Scorer means mean squared error.
type Scorer func(yTrue, yPred mat.Matrix) (float64, error)

// Result stores per-round scores of a resampling evaluation. Scores are mean
// squared errors, so lower is better.
type Result struct {
	TrainScores []float64
	TestScores  []float64
}

// MeanScore returns the mean test score.
func (r *Result) MeanScore() float64 {
	if len(r.TestScores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, score := range r.TestScores {
		sum += score
	}
	return sum / float64(len(r.TestScores))
}

// StdScore returns the sample standard deviation of the test scores.
func (r *Result) StdScore() float64 {
	if len(r.TestScores) <= 1 {
		return 0.0
	}
	mean := r.MeanScore()
	sumSq := 0.0
	for _, score := range r.TestScores {
		diff := score - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(r.TestScores)-1))
}

// CrossValidate evaluates the models produced by newModel over the folds of
// the given splitter, scoring with the given loss (nil means MSE). Folds are
// trained and scored concurrently; the slices in the result stay in fold
// order.
func CrossValidate(newModel ModelFactory, X, y mat.Matrix, splitter Splitter, scorer Scorer) (*Result, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("CrossValidate", "empty data", errors.ErrEmptyData)
	}
	if scorer == nil {
		scorer = metrics.MSEMatrix
	}

	folds := splitter.Split(X, y)
	nFolds := len(folds)

	logger := log.GetLoggerWithName("modelselection")
	logger.Info("Cross-validation started",
		log.SamplesKey, r,
		log.FeaturesKey, c,
		"cv.folds", nFolds,
	)

	result := &Result{
		TrainScores: make([]float64, nFolds),
		TestScores:  make([]float64, nFolds),
	}

	var wg sync.WaitGroup
	foldErrs := make([]error, nFolds)

	for foldIdx := 0; foldIdx < nFolds; foldIdx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			fold := folds[idx]
			trainX, trainY := extractSubset(X, y, fold.TrainIndices)
			testX, testY := extractSubset(X, y, fold.TestIndices)

			m := newModel()
			if err := m.Fit(trainX, trainY); err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d training failed", idx)
				return
			}

			trainScore, err := scoreModel(m, trainX, trainY, scorer)
			if err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d train scoring failed", idx)
				return
			}
			testScore, err := scoreModel(m, testX, testY, scorer)
			if err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d test scoring failed", idx)
				return
			}

			result.TrainScores[idx] = trainScore
			result.TestScores[idx] = testScore
		}(foldIdx)
	}

	wg.Wait()

	for _, err := range foldErrs {
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Cross-validation completed",
		log.LossKey, result.MeanScore(),
		"cv.std", result.StdScore(),
	)

	return result, nil
}

// scoreModel predicts with a fitted model and evaluates the loss.
func scoreModel(m model.Regressor, X, y mat.Matrix, scorer Scorer) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return scorer(y, pred)
}

// extractSubset copies the given rows of X and y into new dense matrices.
// Indices are sorted first so the subset preserves the original row order.
func extractSubset(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	sortedIndices := make([]int, len(indices))
	copy(sortedIndices, indices)
	sort.Ints(sortedIndices)

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range sortedIndices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
