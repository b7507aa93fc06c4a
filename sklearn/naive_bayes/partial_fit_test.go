package naive_bayes

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/core/params"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

func countsData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 3, []float64{
		3, 0, 0,
		2, 1, 0,
		1, 0, 1,
		0, 0, 3,
		0, 1, 2,
		0, 2, 2,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 2, 1, 1, 2})
	return X, y
}

func TestPartialFitMatchesFit(t *testing.T) {
	X, y := countsData()

	full := NewMultinomialNB()
	require.NoError(t, full.Fit(X, y))

	inc := NewMultinomialNB()
	classes := []int{0, 1, 2}
	for start := 0; start < 6; start += 2 {
		xb := X.Slice(start, start+2, 0, 3)
		yb := y.Slice(start, start+2, 0, 1)
		require.NoError(t, inc.PartialFit(xb, yb, classes))
	}

	assert.Equal(t, full.Classes(), inc.Classes())
	assert.Equal(t, full.ClassCount(), inc.ClassCount())
	assert.True(t, mat.Equal(full.FeatureCount(), inc.FeatureCount()))
	assert.Equal(t, 6, inc.NSamplesSeen())
	assert.Equal(t, 3, inc.state.Batches())

	pf, err := full.PredictProba(X)
	require.NoError(t, err)
	pi, err := inc.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(pf, pi, 1e-12))
}

func TestPartialFitClassesRules(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	y := mat.NewDense(2, 1, []float64{0, 1})

	nb := NewMultinomialNB()
	assert.Error(t, nb.PartialFit(X, y, nil), "classes are required on the first call")
	assert.Error(t, nb.PartialFit(X, y, []int{0, 0, 1}), "duplicate classes")

	require.NoError(t, nb.PartialFit(X, y, []int{1, 0}))
	assert.Equal(t, []int{0, 1}, nb.Classes())

	require.NoError(t, nb.PartialFit(X, y, nil))
	require.NoError(t, nb.PartialFit(X, y, []int{0, 1}))
	assert.Error(t, nb.PartialFit(X, y, []int{0, 1, 2}))
}

func TestPartialFitIsAtomic(t *testing.T) {
	nb := NewMultinomialNB()
	X1 := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	y1 := mat.NewDense(2, 1, []float64{0, 1})
	require.NoError(t, nb.PartialFit(X1, y1, []int{0, 1}))

	before := nb.FeatureCount()
	beforeCounts := nb.ClassCount()

	tests := []struct {
		name string
		X    mat.Matrix
		y    mat.Matrix
	}{
		// the bad value sits in the last row so earlier rows would have been counted
		{name: "negative feature", X: mat.NewDense(2, 2, []float64{5, 5, 1, -1}), y: mat.NewDense(2, 1, []float64{0, 1})},
		{name: "unknown label", X: mat.NewDense(2, 2, []float64{5, 5, 1, 1}), y: mat.NewDense(2, 1, []float64{0, 7})},
		{name: "fractional label", X: mat.NewDense(2, 2, []float64{5, 5, 1, 1}), y: mat.NewDense(2, 1, []float64{0, 0.5})},
		{name: "feature count change", X: mat.NewDense(1, 3, []float64{1, 1, 1}), y: mat.NewDense(1, 1, []float64{0})},
		{name: "row mismatch", X: mat.NewDense(2, 2, nil), y: mat.NewDense(1, 1, nil)},
		{name: "nan", X: mat.NewDense(1, 2, []float64{math.NaN(), 1}), y: mat.NewDense(1, 1, []float64{0})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, nb.PartialFit(tt.X, tt.y, nil))
			assert.True(t, mat.Equal(before, nb.FeatureCount()))
			assert.Equal(t, beforeCounts, nb.ClassCount())
			assert.Equal(t, 2, nb.NSamplesSeen())
			assert.Equal(t, 1, nb.state.Batches())
		})
	}
}

func TestPartialFitFeatureCountChangeIsDimensionError(t *testing.T) {
	nb := NewMultinomialNB()
	require.NoError(t, nb.PartialFit(mat.NewDense(1, 2, []float64{1, 1}), mat.NewDense(1, 1, []float64{0}), []int{0, 1}))

	err := nb.PartialFit(mat.NewDense(1, 3, []float64{1, 1, 1}), mat.NewDense(1, 1, []float64{0}), nil)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestPredictIgnoresUnseenClass(t *testing.T) {
	nb := NewMultinomialNB()
	X := mat.NewDense(2, 2, []float64{3, 0, 0, 3})
	y := mat.NewDense(2, 1, []float64{0, 2})
	require.NoError(t, nb.PartialFit(X, y, []int{0, 1, 2}))

	proba, err := nb.PredictProba(X)
	require.NoError(t, err)
	_, cols := proba.Dims()
	require.Equal(t, 3, cols)
	// class 1 has no samples and gets zero probability under a fitted prior
	assert.Zero(t, proba.At(0, 1))

	pred, err := nb.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 2.0, pred.At(1, 0))
}

func TestPredictLargeInputMatchesRowByRow(t *testing.T) {
	X, y := countsData()
	nb := NewMultinomialNB()
	require.NoError(t, nb.Fit(X, y))

	rows := predictRowThreshold * 3
	big := mat.NewDense(rows, 3, nil)
	for i := 0; i < rows; i++ {
		big.SetRow(i, X.RawRowView(i%6))
	}
	got, err := nb.Predict(big)
	require.NoError(t, err)

	want, err := nb.Predict(X)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		require.Equal(t, want.At(i%6, 0), got.At(i, 0), "row %d", i)
	}
}

func TestPredictWrongFeatureCount(t *testing.T) {
	X, y := countsData()
	nb := NewMultinomialNB()
	require.NoError(t, nb.Fit(X, y))

	_, err := nb.Predict(mat.NewDense(1, 2, []float64{1, 1}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestPredictUnfittedIsNotFittedError(t *testing.T) {
	_, err := NewMultinomialNB().PredictProba(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestClassPrior(t *testing.T) {
	X, y := countsData()
	nb := NewMultinomialNB(WithClassPrior([]float64{0.98, 0.01, 0.01}))
	require.NoError(t, nb.Fit(X, y))

	pred, err := nb.Predict(mat.NewDense(1, 3, []float64{1, 1, 1}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))

	bad := NewMultinomialNB(WithClassPrior([]float64{0.5, 0.5}))
	assert.Error(t, bad.Fit(X, y))
}

func TestGetSetParams(t *testing.T) {
	nb := NewMultinomialNB()
	assert.Equal(t, map[string]interface{}{"alpha": 1.0, "fit_prior": true, "class_prior": nil}, nb.GetParams())

	require.NoError(t, nb.SetParams(map[string]interface{}{"alpha": 0.5, "fit_prior": false}))
	assert.Equal(t, 0.5, nb.GetParams()["alpha"])
	assert.Equal(t, false, nb.GetParams()["fit_prior"])

	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{name: "unknown", params: map[string]interface{}{"gamma": 1.0}},
		{name: "negative alpha", params: map[string]interface{}{"alpha": -1.0}},
		{name: "wrong type", params: map[string]interface{}{"fit_prior": "yes"}},
		{name: "prior not summing to one", params: map[string]interface{}{"class_prior": []float64{0.3, 0.3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := nb.SetParams(tt.params)
			var cfgErr *errors.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
			// nothing changes on failure
			assert.Equal(t, 0.5, nb.GetParams()["alpha"])
		})
	}
}

func TestConfigureThroughBinder(t *testing.T) {
	nb := NewMultinomialNB()
	cfg := params.NewConfiguration(map[string]interface{}{"alpha": "0.25", "fitPrior": "false"})
	require.NoError(t, params.Configure(nb, cfg))
	require.NoError(t, params.Configure(nb, cfg))
	assert.Equal(t, map[string]interface{}{"alpha": 0.25, "fit_prior": false, "class_prior": nil}, nb.GetParams())

	err := params.Configure(nb, params.NewConfiguration(map[string]interface{}{"max_depth": 3}))
	var cfgErr *errors.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "max_depth", cfgErr.Param)
}

func TestConfigureInvalidPriorKeepsAlpha(t *testing.T) {
	nb := NewMultinomialNB()
	cfg := params.NewConfiguration(map[string]interface{}{"alpha": 0.25, "class_prior": []float64{0.3, 0.3}})

	err := params.Configure(nb, cfg)
	var cfgErr *errors.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "class_prior", cfgErr.Param)
	assert.Equal(t, 1.0, nb.GetParams()["alpha"])
	assert.Nil(t, nb.GetParams()["class_prior"])
}

func TestMultinomialNBSatisfiesContracts(t *testing.T) {
	var nb interface{} = NewMultinomialNB()
	_, ok := nb.(model.OnlineClassifier)
	assert.True(t, ok)
	_, ok = nb.(model.Configurable)
	assert.True(t, ok)
	_, ok = nb.(model.Persistable)
	assert.True(t, ok)
}

func TestGobRoundTrip(t *testing.T) {
	X, y := countsData()
	nb := NewMultinomialNB(WithAlpha(0.5))
	require.NoError(t, nb.PartialFit(X, y, []int{0, 1, 2}))

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(nb, &buf))

	restored := NewMultinomialNB()
	require.NoError(t, model.LoadModelFromReader(restored, &buf))

	assert.Equal(t, nb.GetParams(), restored.GetParams())
	assert.Equal(t, nb.Classes(), restored.Classes())
	assert.Equal(t, nb.NSamplesSeen(), restored.NSamplesSeen())
	assert.True(t, restored.IsFitted())

	want, err := nb.PredictLogProba(X)
	require.NoError(t, err)
	got, err := restored.PredictLogProba(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))

	// training continues where the snapshot left off
	require.NoError(t, restored.PartialFit(X, y, nil))
	assert.Equal(t, 12, restored.NSamplesSeen())
}

func TestGobRoundTripUnfitted(t *testing.T) {
	nb := NewMultinomialNB(WithFitPrior(false))
	path := filepath.Join(t.TempDir(), "nb.gob")
	require.NoError(t, nb.Save(path))

	restored := NewMultinomialNB()
	require.NoError(t, restored.Load(path))
	assert.False(t, restored.IsFitted())
	assert.Equal(t, false, restored.GetParams()["fit_prior"])
}
