package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Counts []float64
	State  *StateManager
}

func TestSaveLoadRoundTrip(t *testing.T) {
	state := NewStateManager()
	state.RecordBatch(2, 5)
	want := &snapshot{Counts: []float64{1, 2, 3}, State: state}

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, SaveModel(want, path))

	got := &snapshot{}
	require.NoError(t, LoadModel(got, path))
	assert.Equal(t, want.Counts, got.Counts)
	assert.True(t, got.State.IsFitted())
	assert.Equal(t, 1, got.State.Batches())
	nFeatures, nSamples := got.State.GetDimensions()
	assert.Equal(t, 2, nFeatures)
	assert.Equal(t, 5, nSamples)
}

func TestSaveModelToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SaveModelToWriter(&snapshot{Counts: []float64{4}}, &buf))

	got := &snapshot{}
	require.NoError(t, LoadModelFromReader(got, &buf))
	assert.Equal(t, []float64{4}, got.Counts)
}

func TestSaveModelUnwritable(t *testing.T) {
	err := SaveModel(&snapshot{}, filepath.Join(t.TempDir(), "missing", "dir", "model.gob"))
	assert.Error(t, err)
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.Error(t, s.RequireFitted("MultinomialNB", "Predict"))

	s.RecordBatch(3, 4)
	s.RecordBatch(3, 6)
	assert.NoError(t, s.RequireFitted("MultinomialNB", "Predict"))
	_, n := s.GetDimensions()
	assert.Equal(t, 10, n)
	assert.Equal(t, 2, s.Batches())

	s.Reset()
	assert.False(t, s.IsFitted())
	assert.Zero(t, s.Batches())
}
