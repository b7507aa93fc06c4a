package model

import (
	"sync"

	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

// StateManager tracks whether a learner has seen data and how much.
// Exported fields are encoded by gob together with the owning model.
type StateManager struct {
	Fitted    bool
	NFeatures int
	NSamples  int
	NBatches  int

	mu sync.RWMutex
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// Reset returns the state to "configured, never trained".
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
	s.NBatches = 0
}

// RecordBatch marks the model fitted and accumulates sample and batch counts.
func (s *StateManager) RecordBatch(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
	s.NFeatures = nFeatures
	s.NSamples += nSamples
	s.NBatches++
}

// GetDimensions returns the feature count and total samples seen.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// Batches returns how many incremental fits have been committed.
func (s *StateManager) Batches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NBatches
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
