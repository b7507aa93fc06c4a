// Package pipeline runs one training job end to end: apply the configuration
// to the learner, drive every batch through it, then persist it once.
//
// Each stage runs only if the previous one succeeded. A run that fails at any
// stage never reaches the sink, so a partially trained model is not saved.
package pipeline

import (
	"context"
	"time"

	"github.com/YuminosukeSato/skbatch/core/driver"
	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/core/params"
	"github.com/YuminosukeSato/skbatch/core/sink"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
	"github.com/YuminosukeSato/skbatch/pkg/log"
)

// Learner is a model that can be configured and trained incrementally.
type Learner interface {
	model.IncrementalLearner
	model.ParameterSetter
}

// Run describes one training job.
type Run struct {
	Learner     Learner
	Config      params.Configuration
	Source      model.BatchSource
	LabelSize   int
	Sink        sink.Sink
	Destination string

	// Trainer overrides the default per-batch callback, which calls
	// Learner.PartialFit with classes [0, LabelSize).
	Trainer driver.Trainer
}

// Report summarizes a successful run.
type Report struct {
	Batches     int
	Samples     int
	Destination string
	Duration    time.Duration
}

type options struct {
	logger    log.Logger
	mapper    *params.Mapper
	observers []func(driver.BatchEvent)
}

// Option configures Execute.
type Option func(*options)

// WithLogger sets the logger passed to every stage.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMapper overrides the learner's own parameter specs.
func WithMapper(m *params.Mapper) Option {
	return func(o *options) {
		o.mapper = m
	}
}

// WithObserver is notified after every trained batch.
func WithObserver(fn func(driver.BatchEvent)) Option {
	return func(o *options) {
		o.observers = append(o.observers, fn)
	}
}

// Execute runs r: configure, drive, save.
//
// Any failure is returned as a StageError naming the stage (and the batch
// index for batch failures) and wrapping the typed cause, which stays
// reachable through errors.As.
func Execute(ctx context.Context, r Run, opts ...Option) (Report, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLogger()
	}
	logger := o.logger.With(log.ComponentKey, "pipeline")
	start := time.Now()

	if err := r.validate(); err != nil {
		return Report{}, fail(logger, errors.NewStageError(errors.StageConfiguration, 0, err))
	}

	// configuration
	binder := params.NewBinder(params.WithLogger(o.logger), params.WithMapper(o.mapper))
	if err := binder.Configure(r.Learner, r.Config); err != nil {
		return Report{}, fail(logger, errors.NewStageError(errors.StageConfiguration, 0, err))
	}

	trainer := r.Trainer
	if trainer == nil {
		trainer = driver.NewLearnerTrainer(r.Learner)
	}
	dopts := []driver.Option{driver.WithLogger(o.logger)}
	for _, fn := range o.observers {
		dopts = append(dopts, driver.WithObserver(fn))
	}
	d, err := driver.New(r.Source, trainer, r.LabelSize, dopts...)
	if err != nil {
		return Report{}, fail(logger, errors.NewStageError(errors.StageConfiguration, 0, err))
	}

	// batches
	res, err := d.Run(ctx)
	if err != nil {
		return Report{}, fail(logger, errors.NewStageError(errors.StageBatch, failedBatch(err), err))
	}

	// persistence
	if err := r.Sink.Save(ctx, r.Learner, r.Destination); err != nil {
		return Report{}, fail(logger, errors.NewStageError(errors.StagePersistence, 0, err))
	}

	rep := Report{
		Batches:     res.Batches,
		Samples:     res.Samples,
		Destination: r.Destination,
		Duration:    time.Since(start),
	}
	logger.Info("Run complete",
		log.BatchesKey, rep.Batches,
		log.SamplesKey, rep.Samples,
		log.DestinationKey, rep.Destination,
		log.DurationMsKey, rep.Duration.Milliseconds(),
	)
	return rep, nil
}

func (r Run) validate() error {
	switch {
	case r.Learner == nil:
		return errors.NewValidationError("learner", "must not be nil", nil)
	case r.Source == nil:
		return errors.NewValidationError("source", "must not be nil", nil)
	case r.Sink == nil:
		return errors.NewValidationError("sink", "must not be nil", nil)
	case r.Destination == "":
		return errors.NewValidationError("destination", "must not be empty", nil)
	}
	return nil
}

// failedBatch extracts the 1-based batch index carried by driver errors.
func failedBatch(err error) int {
	batch, _ := classify(err)
	return batch
}

// classify returns the batch index and log error code for a run failure.
func classify(err error) (int, string) {
	var (
		shape  *errors.BatchShapeError
		label  *errors.LabelRangeError
		fit    *errors.FitError
		source *errors.SourceError
		cfg    *errors.ConfigurationError
		perr   *errors.PersistenceError
	)
	switch {
	case errors.As(err, &shape):
		return shape.Batch, log.ErrorBatchShape
	case errors.As(err, &label):
		return label.Batch, log.ErrorLabelRange
	case errors.As(err, &fit):
		return fit.Batch, log.ErrorFit
	case errors.As(err, &source):
		return source.Batch, log.ErrorSource
	case errors.As(err, &cfg):
		return 0, log.ErrorConfiguration
	case errors.As(err, &perr):
		return 0, log.ErrorPersistence
	}
	return 0, ""
}

func fail(logger log.Logger, err error) error {
	var se *errors.StageError
	if errors.As(err, &se) {
		_, code := classify(se.Err)
		logger.Error("Run failed", err,
			log.StageKey, string(se.Stage),
			log.ErrorCodeKey, code,
		)
	}
	return err
}
