// Package sink persists a trained learner to a durable destination.
//
// A destination is an opaque string: a filesystem path, a file:// URL or an
// s3://bucket/key URL. Every failure is reported as a PersistenceError so the
// caller can tell "training succeeded, saving failed" apart from other errors.
package sink

import (
	"bytes"
	"context"

	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

// Sink writes a snapshot of learner to destination. A later Save to the same
// destination replaces the earlier snapshot.
type Sink interface {
	Save(ctx context.Context, learner interface{}, destination string) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, learner interface{}, destination string) error

// Save calls f.
func (f Func) Save(ctx context.Context, learner interface{}, destination string) error {
	return f(ctx, learner, destination)
}

// encode serializes learner with the same gob encoding model.LoadModel reads.
func encode(learner interface{}, destination string) ([]byte, error) {
	if learner == nil {
		return nil, errors.NewPersistenceError(destination, errors.New("learner must not be nil"))
	}
	var buf bytes.Buffer
	if err := model.SaveModelToWriter(learner, &buf); err != nil {
		return nil, errors.NewPersistenceError(destination, err)
	}
	return buf.Bytes(), nil
}
