// Package modelselection provides resampling-based model evaluation:
// k-fold cross-validation and bootstrap validation with out-of-bag scoring.
package modelselection

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Splitter defines the interface for cross-validation splitters.
type Splitter interface {
	Split(X, y mat.Matrix) []Fold
	GetNSplits() int
}

// Fold holds the train/test row indices of a single resampling round.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits a dataset into k contiguous folds, optionally shuffling the
// row order first. With a fixed seed the split is fully deterministic.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. Every row appears in
// exactly one test set; the first nSamples % NSplits folds get one extra row.
func (kf *KFold) Split(X, _ mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:currentIdx]...)
		trainIndices = append(trainIndices, indices[currentIdx+testSize:]...)

		folds[i] = Fold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}

		currentIdx += testSize
	}

	return folds
}
