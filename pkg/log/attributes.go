// Package log defines standard attribute keys for batch training operations.
//
// These keys follow a hierarchical naming convention (e.g., "model.name",
// "data.samples") so that log lines from the driver, the learner and the
// sinks can be filtered together.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "MultinomialNB"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "partial_fit", "configure", "save"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "driver", "params", "sink", "pipeline"
	ComponentKey = "ml.component"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// BatchSizeKey indicates the number of rows in one batch.
	BatchSizeKey = "data.batch_size"

	// BatchIndexKey is the 1-based position of a batch in its source.
	BatchIndexKey = "data.batch"

	// BatchesKey counts batches delivered so far.
	BatchesKey = "data.batches"

	// LabelSizeKey is the declared size of the label space.
	LabelSizeKey = "data.label_size"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records prequential or evaluation accuracy in [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// ErrorRateKey records a running error rate, as tracked by drift detectors.
	ErrorRateKey = "metrics.error_rate"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StageKey names the pipeline stage that failed:
	// "configuration", "batch" or "persistence".
	StageKey = "error.stage"
)

// Configuration and Persistence
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// DestinationKey is the opaque location a model snapshot is written to.
	DestinationKey = "sink.destination"

	// SinkKindKey names the sink implementation ("file", "s3").
	SinkKindKey = "sink.kind"

	// BytesKey is the size of a written snapshot.
	BytesKey = "sink.bytes"
)

// Drift Monitoring
const (
	// DetectorKey names the drift detector ("DDM", "ADWIN").
	DetectorKey = "drift.detector"
)

// Standard attribute value constants for common operations.
const (
	OperationPartialFit = "partial_fit"
	OperationConfigure  = "configure"
	OperationSave       = "save"

	// Values for ErrorCodeKey.
	ErrorBatchShape    = "BATCH_SHAPE"
	ErrorLabelRange    = "LABEL_RANGE"
	ErrorFit           = "FIT_FAILURE"
	ErrorSource        = "SOURCE"
	ErrorConfiguration = "CONFIGURATION"
	ErrorPersistence   = "PERSISTENCE"
)
