package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageErrors(t *testing.T) {
	cause := fmt.Errorf("disk full")

	tests := []struct {
		name    string
		err     error
		wantMsg string
		target  interface{}
	}{
		{
			name:    "configuration",
			err:     NewConfigurationError("alphaa", "unknown parameter", nil),
			wantMsg: "skbatch: configuration: parameter 'alphaa': unknown parameter",
			target:  new(*ConfigurationError),
		},
		{
			name:    "configuration with value",
			err:     NewConfigurationError("alpha", "cannot convert to float64", "abc"),
			wantMsg: "skbatch: configuration: parameter 'alpha': cannot convert to float64 (got: abc)",
			target:  new(*ConfigurationError),
		},
		{
			name:    "batch shape",
			err:     NewBatchShapeError(2, 5, 4, 1),
			wantMsg: "skbatch: batch 2: feature rows (5) and label count (4) differ",
			target:  new(*BatchShapeError),
		},
		{
			name:    "batch shape wide labels",
			err:     NewBatchShapeError(1, 3, 3, 2),
			wantMsg: "skbatch: batch 1: labels must be a single column, got 2 columns",
			target:  new(*BatchShapeError),
		},
		{
			name:    "label range",
			err:     NewLabelRangeError(1, 3, 7, 3),
			wantMsg: "skbatch: batch 1 row 3: label 7 outside label space [0, 3)",
			target:  new(*LabelRangeError),
		},
		{
			name:    "fit",
			err:     NewFitError(4, cause),
			wantMsg: "skbatch: batch 4: incremental fit failed: disk full",
			target:  new(*FitError),
		},
		{
			name:    "persistence",
			err:     NewPersistenceError("/ro/model.gob", cause),
			wantMsg: `skbatch: persist "/ro/model.gob": disk full`,
			target:  new(*PersistenceError),
		},
		{
			name:    "stage batch",
			err:     NewStageError(StageBatch, 3, cause),
			wantMsg: "run failed at batch 3: disk full",
			target:  new(*StageError),
		},
		{
			name:    "stage persistence",
			err:     NewStageError(StagePersistence, 0, cause),
			wantMsg: "run failed at persistence: disk full",
			target:  new(*StageError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", tt.err.Error(), tt.wantMsg)
			}
			if !As(tt.err, tt.target) {
				t.Errorf("error should be castable to %T", tt.target)
			}
			formatted := fmt.Sprintf("%+v", tt.err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}
		})
	}
}

func TestWrappedCausesRemainReachable(t *testing.T) {
	cause := NewDimensionError("PartialFit", 3, 4, 1)
	err := NewStageError(StageBatch, 2, NewFitError(2, cause))

	var fitErr *FitError
	if !As(err, &fitErr) {
		t.Fatal("FitError should be reachable through StageError")
	}
	if fitErr.Batch != 2 {
		t.Errorf("Batch = %d, want 2", fitErr.Batch)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("DimensionError should be reachable through FitError")
	}
	if dimErr.Expected != 3 || dimErr.Got != 4 {
		t.Errorf("unexpected DimensionError %+v", dimErr)
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var shapeErr *BatchShapeError
	if !As(NewBatchShapeError(1, 5, 4, 1), &shapeErr) {
		t.Fatal("expected BatchShapeError")
	}
	logger.Error().EmbedObject(shapeErr).Msg("abort")

	out := buf.String()
	for _, want := range []string{`"type":"BatchShapeError"`, `"feature_rows":5`, `"label_rows":4`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	w := NewModelDriftWarning("DDM", 7, 0.4, 0.3, "retrain")
	Warn(w)

	if len(got) != 1 || got[0] != w {
		t.Fatalf("warning not routed to zerolog func: %v", got)
	}
	if !strings.Contains(w.Error(), "batch 7") {
		t.Errorf("unexpected warning message %q", w.Error())
	}
}

func TestCheckFinite(t *testing.T) {
	m := matrixFunc(func(i, j int) float64 {
		if i == 1 && j == 2 {
			return math.Inf(-1)
		}
		return 1
	})
	err := CheckFinite("PartialFit", m)
	var nie *NumericalInstabilityError
	require.True(t, As(err, &nie))
	assert.Equal(t, 1, nie.Row)
	assert.Equal(t, 2, nie.Col)
	assert.Contains(t, err.Error(), "row 1, col 2")

	ok := matrixFunc(func(i, j int) float64 { return 1 })
	assert.NoError(t, CheckFinite("PartialFit", ok))
}

type matrixFunc func(i, j int) float64

func (f matrixFunc) Dims() (int, int)    { return 3, 3 }
func (f matrixFunc) At(i, j int) float64 { return f(i, j) }
