package modelselection

import (
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/gboost-ml/gboost/metrics"
	"github.com/gboost-ml/gboost/pkg/errors"
	"github.com/gboost-ml/gboost/pkg/log"
)

// Bootstrap evaluates a model over resamples drawn with replacement. Each
// round trains on an in-bag sample of size n and scores on the out-of-bag
// rows, the rows the resample never drew.
type Bootstrap struct {
	NResamples int
	RandomSeed int
}

// NewBootstrap creates a bootstrap validator.
func NewBootstrap(nResamples, randomSeed int) *Bootstrap {
	if nResamples < 1 {
		nResamples = 10
	}
	return &Bootstrap{
		NResamples: nResamples,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of resampling rounds.
func (b *Bootstrap) GetNSplits() int {
	return b.NResamples
}

// Split draws NResamples bootstrap rounds. TrainIndices holds n draws with
// replacement; TestIndices holds the out-of-bag rows. All draws come from a
// single seeded generator, so the rounds are deterministic.
func (b *Bootstrap) Split(X, _ mat.Matrix) []Fold {
	nSamples, _ := X.Dims()
	r := rand.New(rand.NewPCG(uint64(b.RandomSeed), uint64(b.RandomSeed)))

	folds := make([]Fold, b.NResamples)
	for k := 0; k < b.NResamples; k++ {
		inBag := make([]int, nSamples)
		drawn := make([]bool, nSamples)
		for i := range inBag {
			idx := r.IntN(nSamples)
			inBag[i] = idx
			drawn[idx] = true
		}

		outOfBag := make([]int, 0, nSamples)
		for i, d := range drawn {
			if !d {
				outOfBag = append(outOfBag, i)
			}
		}

		folds[k] = Fold{
			TrainIndices: inBag,
			TestIndices:  outOfBag,
		}
	}

	return folds
}

// Validate trains one model per bootstrap resample and scores it in-bag and
// out-of-bag with the given loss (nil means MSE). Rounds with an empty
// out-of-bag set are skipped, so the result may hold fewer than NResamples
// scores.
func (b *Bootstrap) Validate(newModel ModelFactory, X, y mat.Matrix, scorer Scorer) (*Result, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("Bootstrap.Validate", "empty data", errors.ErrEmptyData)
	}
	if scorer == nil {
		scorer = metrics.MSEMatrix
	}

	// Draw every resample up front from one generator; the fitting below can
	// then run concurrently without touching shared random state.
	folds := b.Split(X, y)

	logger := log.GetLoggerWithName("modelselection")
	logger.Info("Bootstrap validation started",
		log.SamplesKey, r,
		log.FeaturesKey, c,
		"bootstrap.resamples", b.NResamples,
		log.RandomSeedKey, b.RandomSeed,
	)

	type roundScore struct {
		ok    bool
		train float64
		test  float64
	}

	var wg sync.WaitGroup
	scores := make([]roundScore, len(folds))
	roundErrs := make([]error, len(folds))

	for k := range folds {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			fold := folds[idx]
			if len(fold.TestIndices) == 0 {
				return
			}

			trainX, trainY := resampleRows(X, y, fold.TrainIndices)
			testX, testY := extractSubset(X, y, fold.TestIndices)

			m := newModel()
			if err := m.Fit(trainX, trainY); err != nil {
				roundErrs[idx] = errors.Wrapf(err, "resample %d training failed", idx)
				return
			}

			trainScore, err := scoreModel(m, trainX, trainY, scorer)
			if err != nil {
				roundErrs[idx] = errors.Wrapf(err, "resample %d in-bag scoring failed", idx)
				return
			}
			testScore, err := scoreModel(m, testX, testY, scorer)
			if err != nil {
				roundErrs[idx] = errors.Wrapf(err, "resample %d out-of-bag scoring failed", idx)
				return
			}

			scores[idx] = roundScore{ok: true, train: trainScore, test: testScore}
		}(k)
	}

	wg.Wait()

	for _, err := range roundErrs {
		if err != nil {
			return nil, err
		}
	}

	result := &Result{}
	skipped := 0
	for _, s := range scores {
		if !s.ok {
			skipped++
			continue
		}
		result.TrainScores = append(result.TrainScores, s.train)
		result.TestScores = append(result.TestScores, s.test)
	}
	if skipped > 0 {
		logger.Warn("Resamples without out-of-bag rows were skipped",
			"bootstrap.skipped", skipped,
		)
	}
	if len(result.TestScores) == 0 {
		return nil, errors.Newf("all %d resamples had empty out-of-bag sets", b.NResamples)
	}

	logger.Info("Bootstrap validation completed",
		log.LossKey, result.MeanScore(),
		"bootstrap.std", result.StdScore(),
	)

	return result, nil
}

// resampleRows copies the given rows, duplicates included and in draw order,
// into new dense matrices. Unlike extractSubset it does not sort, so a
// bootstrap sample keeps its multiplicities.
func resampleRows(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
