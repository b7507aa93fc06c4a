package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(v []float64) *mat.VecDense {
	if len(v) == 0 {
		return nil
	}
	return mat.NewVecDense(len(v), v)
}

// Accuracy and ClassificationError are complements on every valid input.
func TestAccuracyAndClassificationError(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64 // accuracy
		wantErr bool
	}{
		{name: "all correct", yTrue: []float64{0, 1, 2, 1, 0}, yPred: []float64{0, 1, 2, 1, 0}, want: 1},
		{name: "one miss in five", yTrue: []float64{0, 1, 2, 1, 0}, yPred: []float64{0, 1, 1, 1, 0}, want: 0.8},
		{name: "binary half", yTrue: []float64{0, 0, 1, 1}, yPred: []float64{0, 1, 1, 0}, want: 0.5},
		{name: "all wrong", yTrue: []float64{2, 2, 2}, yPred: []float64{0, 1, 0}, want: 0},
		{name: "empty", wantErr: true},
		{name: "length mismatch", yTrue: []float64{0, 1}, yPred: []float64{0}, wantErr: true},
		{name: "missing prediction", yTrue: []float64{0, 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := Accuracy(vec(tt.yTrue), vec(tt.yPred))
			miss, errCE := ClassificationError(vec(tt.yTrue), vec(tt.yPred))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Error(t, errCE)
				return
			}
			require.NoError(t, err)
			require.NoError(t, errCE)
			assert.InDelta(t, tt.want, acc, 1e-12)
			assert.InDelta(t, 1-tt.want, miss, 1e-12)
		})
	}
}

func TestAccuracyScore(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{0, 1, 2, 1})
	yPred := mat.NewDense(4, 1, []float64{0, 1, 1, 1})

	got, err := AccuracyScore(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-12)

	_, err = AccuracyScore(mat.NewDense(2, 2, nil), mat.NewDense(2, 1, nil))
	assert.Error(t, err)

	_, err = AccuracyScore(nil, yPred)
	assert.Error(t, err)

	_, err = AccuracyScore(yTrue, mat.NewDense(3, 1, nil))
	assert.Error(t, err)
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := mat.NewDense(5, 1, []float64{0, 0, 1, 2, 2})
	yPred := mat.NewDense(5, 1, []float64{0, 1, 1, 2, 0})

	cm, err := ConfusionMatrix(yTrue, yPred, 3)
	require.NoError(t, err)

	want := mat.NewDense(3, 3, []float64{
		1, 1, 0,
		0, 1, 0,
		1, 0, 1,
	})
	assert.True(t, mat.Equal(want, cm), "got %v", mat.Formatted(cm))

	_, err = ConfusionMatrix(yTrue, yPred, 2)
	assert.Error(t, err)

	_, err = ConfusionMatrix(yTrue, yPred, 0)
	assert.Error(t, err)
}

func BenchmarkAccuracy(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	yPred := make([]float64, n)
	for i := 0; i < n; i++ {
		yTrue[i] = float64(i % 3)
		yPred[i] = float64((i / 2) % 3)
	}
	yTrueVec := mat.NewVecDense(n, yTrue)
	yPredVec := mat.NewVecDense(n, yPred)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Accuracy(yTrueVec, yPredVec)
	}
}
