// Package source provides BatchSource implementations: in-memory slices,
// channels fed by another goroutine, and delimited text files chunked into
// fixed-size batches.
package source

import (
	"context"
	"io"
	"sync"

	"github.com/YuminosukeSato/skbatch/core/model"
)

// SliceSource yields a fixed list of batches in order.
type SliceSource struct {
	mu      sync.Mutex
	batches []*model.Batch
	next    int
}

// Slice returns a source over batches.
func Slice(batches ...*model.Batch) *SliceSource {
	return &SliceSource{batches: batches}
}

// Next implements model.BatchSource.
func (s *SliceSource) Next(ctx context.Context) (*model.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.batches) {
		return nil, io.EOF
	}
	b := s.batches[s.next]
	s.next++
	return b, nil
}

// Remaining returns how many batches have not been pulled yet.
func (s *SliceSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches) - s.next
}

// ChanSource pulls batches from a channel until it is closed.
// It lets a producer goroutine (for example a partition reader) feed the
// single-threaded driver.
type ChanSource struct {
	ch <-chan *model.Batch
}

// Chan returns a source reading from ch.
func Chan(ch <-chan *model.Batch) *ChanSource {
	return &ChanSource{ch: ch}
}

// Next implements model.BatchSource. It blocks until a batch arrives, the
// channel is closed (io.EOF) or ctx is done.
func (s *ChanSource) Next(ctx context.Context) (*model.Batch, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case b, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return b, nil
	}
}

// FuncSource adapts a generator function to model.BatchSource.
type FuncSource func(ctx context.Context) (*model.Batch, error)

// Next implements model.BatchSource.
func (f FuncSource) Next(ctx context.Context) (*model.Batch, error) {
	return f(ctx)
}
