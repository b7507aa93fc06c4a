// Package driver turns a pull-based sequence of batches into a sequence of
// incremental-fit calls against one long-lived learner.
//
// A Driver delivers batches to its Trainer one at a time, in source order,
// with the same label size on every call. The next batch is pulled only after
// the previous Train call has returned, so the learner is never mutated
// concurrently. The first error of any kind ends the run; nothing is retried
// and no later batch is delivered.
package driver

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
	"github.com/YuminosukeSato/skbatch/pkg/log"
)

// State is the lifecycle position of a Driver.
type State int

const (
	// StateConfigured means the driver was built and no batch has been pulled.
	StateConfigured State = iota
	// StateRunning means Run is in progress.
	StateRunning
	// StateComplete means the source was exhausted without error.
	StateComplete
	// StateFailed means Run stopped on an error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result summarizes a run.
type Result struct {
	Batches int
	Samples int
}

// BatchEvent is sent to observers after a batch has been trained.
type BatchEvent struct {
	Index int // 1-based
	Rows  int
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used for per-batch and completion records.
func WithLogger(logger log.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithObserver registers fn to be called after every successfully trained batch.
// Observers run synchronously on the driver's goroutine.
func WithObserver(fn func(BatchEvent)) Option {
	return func(d *Driver) {
		d.observers = append(d.observers, fn)
	}
}

// Driver pulls batches from a source and hands them to a trainer.
// A Driver runs once; build a new one for a new run.
type Driver struct {
	source    model.BatchSource
	trainer   Trainer
	labels    model.LabelSpace
	logger    log.Logger
	observers []func(BatchEvent)

	mu    sync.Mutex
	state State
}

// New validates its arguments and returns a driver in StateConfigured.
func New(source model.BatchSource, trainer Trainer, labelSize int, opts ...Option) (*Driver, error) {
	if source == nil {
		return nil, errors.NewValidationError("source", "must not be nil", nil)
	}
	if trainer == nil {
		return nil, errors.NewValidationError("trainer", "must not be nil", nil)
	}
	labels, err := model.NewLabelSpace(labelSize)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		source:  source,
		trainer: trainer,
		labels:  labels,
		state:   StateConfigured,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.GetLogger()
	}
	d.logger = d.logger.With(log.ComponentKey, "driver", log.LabelSizeKey, labels.Size())
	return d, nil
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LabelSize returns the label size passed to every Train call.
func (d *Driver) LabelSize() int {
	return d.labels.Size()
}

// Run feeds every batch to the trainer until the source returns io.EOF.
//
// Errors are typed: SourceError when the source fails or ctx is cancelled,
// BatchShapeError and LabelRangeError when a batch is rejected before
// delivery, FitError when the trainer fails or panics. Each carries the
// 1-based batch index. The returned Result counts only fully trained batches.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	d.mu.Lock()
	if d.state != StateConfigured {
		d.mu.Unlock()
		return Result{}, errors.WithStack(errors.ErrDriverFinished)
	}
	d.state = StateRunning
	d.mu.Unlock()

	start := time.Now()
	res, err := d.feed(ctx)

	d.mu.Lock()
	if err != nil {
		d.state = StateFailed
	} else {
		d.state = StateComplete
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("Batch feeding aborted", err,
			log.BatchesKey, res.Batches,
			log.SamplesKey, res.Samples,
		)
		return res, err
	}
	d.logger.Info("Batch feeding complete",
		log.BatchesKey, res.Batches,
		log.SamplesKey, res.Samples,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (d *Driver) feed(ctx context.Context) (Result, error) {
	var res Result
	for index := 1; ; index++ {
		if err := ctx.Err(); err != nil {
			return res, errors.NewSourceError(index, err)
		}

		batch, err := d.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, errors.NewSourceError(index, err)
		}
		if batch == nil {
			return res, errors.NewSourceError(index, errors.New("source returned a nil batch"))
		}

		if err := d.check(index, batch); err != nil {
			return res, err
		}
		if err := d.train(ctx, batch); err != nil {
			return res, errors.NewFitError(index, err)
		}

		rows, _ := batch.Rows()
		res.Batches++
		res.Samples += rows
		d.logger.Debug("Batch trained",
			log.OperationKey, log.OperationPartialFit,
			log.BatchIndexKey, index,
			log.BatchSizeKey, rows,
		)
		for _, fn := range d.observers {
			fn(BatchEvent{Index: index, Rows: rows})
		}
	}
}

// check rejects a batch before any of it reaches the learner.
// gonum は 0 行の行列を持てないので、空のバッチ (X, Y が nil) も BatchShapeError
func (d *Driver) check(index int, batch *model.Batch) error {
	featureRows, labelRows := batch.Rows()
	labelCols := 1
	if batch.Y != nil {
		_, labelCols = batch.Y.Dims()
	}
	if batch.X == nil || batch.Y == nil || labelCols != 1 || featureRows != labelRows {
		return errors.NewBatchShapeError(index, featureRows, labelRows, labelCols)
	}

	for i := 0; i < labelRows; i++ {
		if label := batch.Y.At(i, 0); !d.labels.Contains(label) {
			return errors.NewLabelRangeError(index, i, label, d.labels.Size())
		}
	}
	return nil
}

func (d *Driver) train(ctx context.Context, batch *model.Batch) (err error) {
	defer errors.Recover(&err, "Trainer.Train")
	return d.trainer.Train(ctx, batch, d.labels.Size())
}
