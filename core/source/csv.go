package source

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

// DefaultBatchSize is used when CSVOptions.BatchSize is zero.
const DefaultBatchSize = 1000

// CSVOptions controls how rows are read and grouped.
type CSVOptions struct {
	// BatchSize is the maximum number of rows per batch.
	BatchSize int
	// LabelColumn is the zero-based column holding the label.
	// Negative values count from the end; -1 is the last column.
	LabelColumn int
	// Header skips the first record.
	Header bool
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// CSVSource reads labeled rows from delimited text and yields them in
// batches of at most BatchSize rows. All columns other than the label column
// are features. Every record must have the same number of fields.
type CSVSource struct {
	r          *csv.Reader
	opts       CSVOptions
	headerRead bool
	err        error // sticky; io.EOF after the last batch
	rows       int
}

// CSV returns a batch source over r.
func CSV(r io.Reader, opts CSVOptions) (*CSVSource, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchSize < 0 {
		return nil, errors.NewValidationError("batch_size", "must be greater than 0", opts.BatchSize)
	}
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &CSVSource{r: cr, opts: opts}, nil
}

// Rows returns how many data rows have been read so far.
func (s *CSVSource) Rows() int {
	return s.rows
}

// Next implements model.BatchSource.
func (s *CSVSource) Next(ctx context.Context) (*model.Batch, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.opts.Header && !s.headerRead {
		s.headerRead = true
		if _, err := s.r.Read(); err != nil {
			return nil, s.fail(err)
		}
	}

	var (
		features []float64
		labels   []float64
		width    int
	)
	for len(labels) < s.opts.BatchSize {
		record, err := s.r.Read()
		if err == io.EOF {
			s.err = io.EOF
			break
		}
		if err != nil {
			return nil, s.fail(err)
		}

		line, _ := s.r.FieldPos(0)
		labelCol := s.opts.LabelColumn
		if labelCol < 0 {
			labelCol += len(record)
		}
		if labelCol < 0 || labelCol >= len(record) || len(record) < 2 {
			return nil, s.fail(errors.Newf("line %d: label column %d out of range for %d fields", line, s.opts.LabelColumn, len(record)))
		}

		for j, field := range record {
			v, perr := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if perr != nil {
				return nil, s.fail(errors.Newf("line %d column %d: %q is not numeric", line, j+1, field))
			}
			if j == labelCol {
				labels = append(labels, v)
				continue
			}
			features = append(features, v)
		}
		width = len(record) - 1
		s.rows++
	}

	if len(labels) == 0 {
		return nil, io.EOF
	}
	return &model.Batch{
		X: mat.NewDense(len(labels), width, features),
		Y: mat.NewDense(len(labels), 1, labels),
	}, nil
}

func (s *CSVSource) fail(err error) error {
	if err == io.EOF {
		s.err = io.EOF
		return io.EOF
	}
	s.err = errors.Wrap(err, "read csv")
	return s.err
}
