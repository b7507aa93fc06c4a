package driver

import (
	"context"

	"github.com/YuminosukeSato/skbatch/core/model"
)

// Trainer is the per-batch training callback. Train must apply batch to the
// learner it owns and return only after the learner's state is updated.
type Trainer interface {
	Train(ctx context.Context, batch *model.Batch, labelSize int) error
}

// TrainerFunc adapts an ordinary function to Trainer.
type TrainerFunc func(ctx context.Context, batch *model.Batch, labelSize int) error

// Train calls f(ctx, batch, labelSize).
func (f TrainerFunc) Train(ctx context.Context, batch *model.Batch, labelSize int) error {
	return f(ctx, batch, labelSize)
}

// LearnerTrainer feeds every batch to an incremental learner together with the
// full label range [0, labelSize).
type LearnerTrainer struct {
	learner model.IncrementalLearner
}

// NewLearnerTrainer returns the default trainer for learner.
func NewLearnerTrainer(learner model.IncrementalLearner) *LearnerTrainer {
	return &LearnerTrainer{learner: learner}
}

// Train implements Trainer.
func (t *LearnerTrainer) Train(_ context.Context, batch *model.Batch, labelSize int) error {
	return t.learner.PartialFit(batch.X, batch.Y, model.LabelSpace(labelSize).Classes())
}
