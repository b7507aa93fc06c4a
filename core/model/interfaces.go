// Package model defines the contracts shared by learners, batch sources,
// the batch driver and model sinks.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter trains a model from scratch. Fit discards previously learned statistics.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor returns one predicted label per row of X, as an n×1 matrix.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is a learner that can be trained from scratch and queried.
type Estimator interface {
	Fitter
	Predictor
	IsFitted() bool
}

// IncrementalLearner is the interface for models that support incremental learning.
//
// PartialFit updates the learner's statistics with one batch without discarding
// what earlier batches contributed. classes is the full label space; it is
// passed on every call because a single batch rarely contains every label.
type IncrementalLearner interface {
	PartialFit(X mat.Matrix, y mat.Matrix, classes []int) error
}

// OnlineClassifier combines interfaces for online classification models.
type OnlineClassifier interface {
	Estimator
	IncrementalLearner

	// PredictProba returns probability estimates for each class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the label space the model was sized for.
	Classes() []int
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters keyed by canonical name.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters. Unknown names must fail.
	SetParams(params map[string]interface{}) error
}

// Configurable is a learner whose hyperparameters can be read back and written.
type Configurable interface {
	ParameterGetter
	ParameterSetter
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
