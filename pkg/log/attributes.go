// Package log defines standard attribute keys for machine learning operations.
//
// Using these keys consistently enables structured log analysis and filtering
// across training, prediction and evaluation workflows. Keys follow a
// hierarchical naming convention (e.g. "model.name", "data.samples").

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "GradientBoostingTree", "DecisionTreeRegressor"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "transform"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "tree", "ensemble", "modelselection"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"
)

// Training progress and metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records a loss value during training or evaluation.
	LossKey = "metrics.loss"

	// R2ScoreKey records the R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// IterationKey records the current boosting round.
	IterationKey = "training.iteration"

	// LearningRateKey records the shrinkage factor of the ensemble.
	LearningRateKey = "hyperparams.learning_rate"

	// MaxDepthKey records the depth limit shared by every tree.
	MaxDepthKey = "hyperparams.max_depth"

	// EstimatorsKey records the configured number of boosting rounds.
	EstimatorsKey = "hyperparams.n_estimators"

	// RandomSeedKey records the random seed of an evaluation splitter.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute value constants for common operations.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationScore     = "score"
	OperationTransform = "transform"
)
