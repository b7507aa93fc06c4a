package model

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

// Batch represents one chunk of labeled training data.
type Batch struct {
	X mat.Matrix // Feature matrix, rows = examples
	Y mat.Matrix // Label column (rows x 1) of category indices
}

// NewBatch builds a batch from row-major features and integer labels.
func NewBatch(features [][]float64, labels []int) *Batch {
	b := &Batch{}
	if len(features) > 0 && len(features[0]) > 0 {
		cols := len(features[0])
		data := make([]float64, 0, len(features)*cols)
		for _, row := range features {
			data = append(data, row...)
		}
		b.X = mat.NewDense(len(features), cols, data)
	}
	if len(labels) > 0 {
		y := make([]float64, len(labels))
		for i, l := range labels {
			y[i] = float64(l)
		}
		b.Y = mat.NewDense(len(labels), 1, y)
	}
	return b
}

// Rows returns the number of feature rows and label rows.
// A nil matrix counts as zero rows.
func (b *Batch) Rows() (featureRows, labelRows int) {
	if b.X != nil {
		featureRows, _ = b.X.Dims()
	}
	if b.Y != nil {
		labelRows, _ = b.Y.Dims()
	}
	return featureRows, labelRows
}

// BatchSource is a pull-based, finite, non-restartable producer of batches.
//
// Next returns io.EOF once the source is exhausted and keeps returning io.EOF
// afterwards. Implementations may block; ctx cancels a blocked pull.
type BatchSource interface {
	Next(ctx context.Context) (*Batch, error)
}

// LabelSpace declares the valid labels [0, size) for a whole run.
type LabelSpace int

// NewLabelSpace validates size and returns the label space.
func NewLabelSpace(size int) (LabelSpace, error) {
	if size <= 0 {
		return 0, errors.NewValidationError("label_size", "must be greater than 0", size)
	}
	return LabelSpace(size), nil
}

// Size returns the number of labels.
func (s LabelSpace) Size() int {
	return int(s)
}

// Classes returns 0, 1, ..., size-1.
func (s LabelSpace) Classes() []int {
	classes := make([]int, int(s))
	for i := range classes {
		classes[i] = i
	}
	return classes
}

// Contains reports whether label is an integer inside the label space.
func (s LabelSpace) Contains(label float64) bool {
	if math.IsNaN(label) || label != math.Trunc(label) {
		return false
	}
	return label >= 0 && label < float64(s)
}
