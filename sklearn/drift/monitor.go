package drift

import (
	"context"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/skbatch/core/driver"
	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/metrics"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
	"github.com/YuminosukeSato/skbatch/pkg/log"
)

// ActionReview is the action recommended in drift warnings.
const ActionReview = "review recent batches; consider retraining from the drift point"

// Stats summarizes what a Monitor has seen.
type Stats struct {
	Batches   int // batches passed through
	Evaluated int // batches scored before training
	Samples   int // rows scored
	Correct   int // rows predicted correctly
	Warnings  int // batches that raised a warning level
	Drifts    int // batches in which drift was detected
}

// Accuracy returns the prequential accuracy over all scored rows.
func (s Stats) Accuracy() float64 {
	if s.Samples == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Samples)
}

// Monitor is a test-then-train decorator: every batch is first scored by the
// current model, the outcomes are fed to a drift detector, and only then is
// the batch passed on unchanged to the wrapped trainer.
//
// Drift never stops the run; it is reported through errors.Warn.
type Monitor struct {
	next      driver.Trainer
	predictor model.Predictor
	detector  Detector
	logger    log.Logger

	mu        sync.Mutex
	stats     Stats
	confusion *mat.Dense // labelSize × labelSize, nil until a batch is scored
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithDetector replaces the default DDM detector.
func WithDetector(d Detector) MonitorOption {
	return func(m *Monitor) {
		m.detector = d
	}
}

// WithLogger sets the monitor's logger.
func WithLogger(logger log.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// NewMonitor wraps next. predictor is usually the learner next trains.
func NewMonitor(next driver.Trainer, predictor model.Predictor, opts ...MonitorOption) *Monitor {
	m := &Monitor{next: next, predictor: predictor}
	for _, opt := range opts {
		opt(m)
	}
	if m.detector == nil {
		m.detector = NewDDM()
	}
	if m.logger == nil {
		m.logger = log.GetLogger()
	}
	m.logger = m.logger.With(log.ComponentKey, "drift", log.DetectorKey, m.detector.Name())
	return m
}

// Train implements driver.Trainer.
func (m *Monitor) Train(ctx context.Context, batch *model.Batch, labelSize int) error {
	m.mu.Lock()
	m.stats.Batches++
	index := m.stats.Batches
	m.mu.Unlock()

	m.evaluate(index, batch, labelSize)
	return m.next.Train(ctx, batch, labelSize)
}

// Stats returns a copy of the counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Confusion returns the accumulated confusion matrix of the scored rows
// (rows are true labels, columns predictions), or nil if nothing was scored.
func (m *Monitor) Confusion() *mat.Dense {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.confusion == nil {
		return nil
	}
	return mat.DenseCopyOf(m.confusion)
}

func (m *Monitor) evaluate(index int, batch *model.Batch, labelSize int) {
	if f, ok := m.predictor.(interface{ IsFitted() bool }); ok && !f.IsFitted() {
		return
	}
	pred, err := m.predictor.Predict(batch.X)
	if err != nil {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			m.logger.Warn("Prequential scoring skipped",
				log.BatchIndexKey, index,
				log.ErrAttrKey, err.Error(),
			)
		}
		return
	}

	rows, _ := batch.Rows()
	correct := 0
	var warned, drifted bool
	var last, final Signal
	for i := 0; i < rows; i++ {
		ok := pred.At(i, 0) == batch.Y.At(i, 0)
		if ok {
			correct++
		}
		sig := m.detector.Observe(ok)
		final = sig
		warned = warned || sig.Warning
		if sig.Drift {
			drifted = true
			last = sig
		}
	}

	// 予測がラベル空間外なら混同行列には数えない
	cm, cmErr := metrics.ConfusionMatrix(batch.Y, pred, labelSize)

	m.mu.Lock()
	if cmErr == nil {
		if m.confusion == nil {
			m.confusion = cm
		} else {
			m.confusion.Add(m.confusion, cm)
		}
	}
	m.stats.Evaluated++
	m.stats.Samples += rows
	m.stats.Correct += correct
	if warned {
		m.stats.Warnings++
	}
	if drifted {
		m.stats.Drifts++
	}
	m.mu.Unlock()

	accuracy := 0.0
	if rows > 0 {
		accuracy = float64(correct) / float64(rows)
	}
	m.logger.Debug("Batch scored before training",
		log.BatchIndexKey, index,
		log.SamplesKey, rows,
		log.AccuracyKey, accuracy,
		log.ErrorRateKey, final.ErrorRate,
	)
	if drifted {
		errors.Warn(errors.NewModelDriftWarning(m.detector.Name(), index, last.ErrorRate, last.Threshold, ActionReview))
	}
}
