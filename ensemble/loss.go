package ensemble

// Loss selects the differentiable loss optimized by the ensemble. It is a
// closed enumeration: supporting a new loss means adding an entry to
// lossTable, not a conditional branch in the training loop.
type Loss int

const (
	// SquaredError is the ½·(y−F(x))² regression loss. Its negative gradient
	// is the plain residual y − F(x), and the optimal constant step for a
	// leaf region is the mean residual over that region.
	SquaredError Loss = iota
)

// String returns the scikit-learn style name of the loss.
func (l Loss) String() string {
	switch l {
	case SquaredError:
		return "squared_error"
	default:
		return "unknown"
	}
}

// lossSpec bundles the per-loss functions consumed by the training loop.
type lossSpec struct {
	// negativeGradient writes the negative gradient of the loss at the
	// current prediction into out; out has the same length as y.
	negativeGradient func(y, pred, out []float64)

	// leafStep returns the loss-optimal constant step (gamma) for the leaf
	// region holding the given rows.
	leafStep func(residual []float64, rows []int) float64
}

var lossTable = map[Loss]lossSpec{
	SquaredError: {
		negativeGradient: func(y, pred, out []float64) {
			for i := range y {
				out[i] = y[i] - pred[i]
			}
		},
		leafStep: func(residual []float64, rows []int) float64 {
			sum := 0.0
			for _, i := range rows {
				sum += residual[i]
			}
			return sum / float64(len(rows))
		},
	},
}
