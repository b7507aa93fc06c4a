// Package naive_bayes implements naive Bayes classifiers that learn from
// count features one batch at a time.
package naive_bayes

import (
	"bytes"
	"encoding/gob"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/core/parallel"
	"github.com/YuminosukeSato/skbatch/core/params"
	"github.com/YuminosukeSato/skbatch/metrics"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
	"github.com/YuminosukeSato/skbatch/pkg/log"
)

const modelName = "MultinomialNB"

// minAlpha は alpha の下限。0 のままだと未出現の特徴量で log(0) になる
const minAlpha = 1e-10

// MultinomialNB は多項分布ナイーブベイズ分類器
//
// 単語出現回数のような非負のカウント特徴量を想定する。
// PartialFit はクラス毎の特徴量カウントを累積するだけなので、
// 全データを一度に Fit した場合とバッチ毎に PartialFit した場合で結果は一致する。
type MultinomialNB struct {
	// ハイパーパラメータ
	alpha      float64
	fitPrior   bool
	classPrior []float64

	// 学習済み統計
	classes        []int
	classCount     []float64
	featureCount   *mat.Dense // nClasses x nFeatures
	classLogPrior  []float64
	featureLogProb *mat.Dense

	state  *model.StateManager
	logger log.Logger
	mu     sync.RWMutex
}

var (
	_ model.OnlineClassifier = (*MultinomialNB)(nil)
	_ model.Configurable     = (*MultinomialNB)(nil)
	_ model.Persistable      = (*MultinomialNB)(nil)
	_ params.Described       = (*MultinomialNB)(nil)
)

// Option は MultinomialNB の設定オプション
type Option func(*MultinomialNB)

// WithAlpha はラプラス/リッドストーン平滑化パラメータを設定する
func WithAlpha(alpha float64) Option {
	return func(nb *MultinomialNB) {
		nb.alpha = alpha
	}
}

// WithFitPrior はクラス事前確率をデータから学習するかを設定する。
// false の場合は一様事前分布を使う
func WithFitPrior(fitPrior bool) Option {
	return func(nb *MultinomialNB) {
		nb.fitPrior = fitPrior
	}
}

// WithClassPrior は固定のクラス事前確率を設定する（fit_prior より優先）
func WithClassPrior(prior []float64) Option {
	return func(nb *MultinomialNB) {
		nb.classPrior = append([]float64(nil), prior...)
	}
}

// NewMultinomialNB は新しい MultinomialNB を作成する
func NewMultinomialNB(opts ...Option) *MultinomialNB {
	nb := &MultinomialNB{
		alpha:    1.0,
		fitPrior: true,
		state:    model.NewStateManager(),
		logger:   log.GetLogger().With(log.ModelNameKey, modelName),
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// ParamSpecs implements params.Described.
func (nb *MultinomialNB) ParamSpecs() []params.Spec {
	return []params.Spec{
		{Name: "alpha", Kind: params.Float, Default: 1.0},
		{Name: "fit_prior", Kind: params.Bool, Aliases: []string{"fitPrior"}, Default: true},
		{Name: "class_prior", Kind: params.FloatSlice, Aliases: []string{"classPrior"}, Nullable: true},
	}
}

// GetParams はハイパーパラメータを返す
func (nb *MultinomialNB) GetParams() map[string]interface{} {
	nb.mu.RLock()
	defer nb.mu.RUnlock()

	var prior interface{}
	if nb.classPrior != nil {
		prior = append([]float64(nil), nb.classPrior...)
	}
	return map[string]interface{}{
		"alpha":       nb.alpha,
		"fit_prior":   nb.fitPrior,
		"class_prior": prior,
	}
}

// SetParams はハイパーパラメータを設定する。未知のキーはエラー。
// 全てのキーを検証してから反映するので、失敗時は何も変更されない
func (nb *MultinomialNB) SetParams(p map[string]interface{}) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	alpha, fitPrior, classPrior := nb.alpha, nb.fitPrior, nb.classPrior
	for key, value := range p {
		switch key {
		case "alpha":
			v, ok := toFloat(value)
			if !ok {
				return errors.NewConfigurationError(key, "must be a number", value)
			}
			if v < 0 || math.IsNaN(v) {
				return errors.NewConfigurationError(key, "must be non-negative", value)
			}
			alpha = v
		case "fit_prior":
			v, ok := value.(bool)
			if !ok {
				return errors.NewConfigurationError(key, "must be a bool", value)
			}
			fitPrior = v
		case "class_prior":
			switch v := value.(type) {
			case nil:
				classPrior = nil
			case []float64:
				if err := checkPrior(v, len(nb.classes)); err != nil {
					return errors.NewConfigurationError(key, err.Error(), value)
				}
				classPrior = append([]float64(nil), v...)
			default:
				return errors.NewConfigurationError(key, "must be a list of numbers or null", value)
			}
		default:
			return errors.NewConfigurationError(key, "unknown parameter", value)
		}
	}

	nb.alpha, nb.fitPrior, nb.classPrior = alpha, fitPrior, classPrior
	if nb.featureCount != nil {
		nb.classLogPrior, nb.featureLogProb = nb.derive(nb.classCount, nb.featureCount)
	}
	return nil
}

// Fit は既存の統計を破棄して X, y から学習する。
// クラスは y に現れるラベルから決まる
func (nb *MultinomialNB) Fit(X, y mat.Matrix) error {
	if y == nil {
		return errors.NewValueError("MultinomialNB.Fit", "y must not be nil")
	}
	classes, err := uniqueLabels(y)
	if err != nil {
		return err
	}

	nb.mu.Lock()
	nb.reset()
	nb.mu.Unlock()

	return nb.PartialFit(X, y, classes)
}

// PartialFit は1バッチ分のカウントを累積する。
//
// classes は初回呼び出しで必須。2回目以降は nil か同じ集合を渡す。
// 検証に失敗した場合、モデルの状態は呼び出し前のまま変わらない。
func (nb *MultinomialNB) PartialFit(X, y mat.Matrix, classes []int) (err error) {
	defer errors.Recover(&err, "MultinomialNB.PartialFit")

	if X == nil || y == nil {
		return errors.NewValueError("MultinomialNB.PartialFit", "X and y must not be nil")
	}
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows != yRows {
		return errors.NewDimensionError("MultinomialNB.PartialFit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("MultinomialNB.PartialFit", "y must be a single column")
	}
	if err := errors.CheckFinite("MultinomialNB.PartialFit", X); err != nil {
		return err
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()

	known := nb.classes
	if known == nil {
		if len(classes) == 0 {
			return errors.NewValueError("MultinomialNB.PartialFit", "classes must be passed on the first call to PartialFit")
		}
		if known, err = normalizeClasses(classes); err != nil {
			return err
		}
		if nb.classPrior != nil {
			if err := checkPrior(nb.classPrior, len(known)); err != nil {
				return errors.NewValueError("MultinomialNB.PartialFit", "class_prior: "+err.Error())
			}
		}
	} else if classes != nil {
		got, err := normalizeClasses(classes)
		if err != nil {
			return err
		}
		if !equalInts(got, known) {
			return errors.NewValueError("MultinomialNB.PartialFit", "classes differ from those passed on the first call")
		}
	}

	if nFeatures, _ := nb.state.GetDimensions(); nb.state.IsFitted() && cols != nFeatures {
		return errors.NewDimensionError("MultinomialNB.PartialFit", nFeatures, cols, 1)
	}

	index := make(map[int]int, len(known))
	for i, c := range known {
		index[c] = i
	}

	// 一時バッファに累積し、検証が全て通ってから反映する
	classCount := make([]float64, len(known))
	copy(classCount, nb.classCount)
	featureCount := mat.NewDense(len(known), cols, nil)
	if nb.featureCount != nil {
		featureCount.Copy(nb.featureCount)
	}

	for i := 0; i < rows; i++ {
		label := y.At(i, 0)
		ci, ok := index[int(label)]
		if !ok || label != math.Trunc(label) {
			return errors.NewValueError("MultinomialNB.PartialFit", "label not in classes")
		}
		classCount[ci]++
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if v < 0 {
				return errors.NewValueError("MultinomialNB.PartialFit", "negative values in X (counts must be non-negative)")
			}
			featureCount.Set(ci, j, featureCount.At(ci, j)+v)
		}
	}

	nb.classes = known
	nb.classCount = classCount
	nb.featureCount = featureCount
	nb.classLogPrior, nb.featureLogProb = nb.derive(classCount, featureCount)
	nb.state.RecordBatch(cols, rows)

	nb.logger.Debug("Partial fit applied",
		log.OperationKey, log.OperationPartialFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.BatchesKey, nb.state.Batches(),
	)
	return nil
}

// derive は累積カウントから対数事前確率と対数特徴量確率を計算する
func (nb *MultinomialNB) derive(classCount []float64, featureCount *mat.Dense) ([]float64, *mat.Dense) {
	nClasses, nFeatures := featureCount.Dims()

	logPrior := make([]float64, nClasses)
	switch {
	case nb.classPrior != nil && len(nb.classPrior) == nClasses:
		for i, p := range nb.classPrior {
			logPrior[i] = math.Log(p)
		}
	case nb.fitPrior:
		total := 0.0
		for _, c := range classCount {
			total += c
		}
		for i, c := range classCount {
			logPrior[i] = math.Log(c) - math.Log(total)
		}
	default:
		for i := range logPrior {
			logPrior[i] = -math.Log(float64(nClasses))
		}
	}

	alpha := nb.alpha
	if alpha < minAlpha {
		alpha = minAlpha
	}
	logProb := mat.NewDense(nClasses, nFeatures, nil)
	for c := 0; c < nClasses; c++ {
		total := 0.0
		for j := 0; j < nFeatures; j++ {
			total += featureCount.At(c, j) + alpha
		}
		logTotal := math.Log(total)
		for j := 0; j < nFeatures; j++ {
			logProb.Set(c, j, math.Log(featureCount.At(c, j)+alpha)-logTotal)
		}
	}
	return logPrior, logProb
}

// predictRowThreshold を超える行数の予測は行単位で並列化する
const predictRowThreshold = parallel.DefaultRowThreshold

// jointLogLikelihood は各サンプル・各クラスの log P(c) + log P(x|c) を返す
func (nb *MultinomialNB) jointLogLikelihood(op string, X mat.Matrix) (*mat.Dense, error) {
	if err := nb.state.RequireFitted(modelName, op); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewValueError("MultinomialNB."+op, "X must not be nil")
	}
	rows, cols := X.Dims()
	nFeatures, _ := nb.state.GetDimensions()
	if cols != nFeatures {
		return nil, errors.NewDimensionError("MultinomialNB."+op, nFeatures, cols, 1)
	}

	nClasses := len(nb.classes)
	jll := mat.NewDense(rows, nClasses, nil)
	parallel.ForRows(rows, predictRowThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for c := 0; c < nClasses; c++ {
				s := nb.classLogPrior[c]
				for j := 0; j < cols; j++ {
					if v := X.At(i, j); v != 0 {
						s += v * nb.featureLogProb.At(c, j)
					}
				}
				jll.Set(i, c, s)
			}
		}
	})
	return jll, nil
}

// Predict は各サンプルの予測クラスを (n×1) で返す
func (nb *MultinomialNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	nb.mu.RLock()
	defer nb.mu.RUnlock()

	jll, err := nb.jointLogLikelihood("Predict", X)
	if err != nil {
		return nil, err
	}
	rows, nClasses := jll.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		best := 0
		for c := 1; c < nClasses; c++ {
			if jll.At(i, c) > jll.At(i, best) {
				best = c
			}
		}
		out.Set(i, 0, float64(nb.classes[best]))
	}
	return out, nil
}

// PredictLogProba は各クラスの対数確率を (n×nClasses) で返す
func (nb *MultinomialNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.predictLogProba("PredictLogProba", X)
}

func (nb *MultinomialNB) predictLogProba(op string, X mat.Matrix) (*mat.Dense, error) {
	jll, err := nb.jointLogLikelihood(op, X)
	if err != nil {
		return nil, err
	}
	rows, _ := jll.Dims()
	for i := 0; i < rows; i++ {
		row := jll.RawRowView(i)
		norm := floats.LogSumExp(row)
		for c := range row {
			row[c] -= norm
		}
	}
	return jll, nil
}

// PredictProba は各クラスの確率を (n×nClasses) で返す
func (nb *MultinomialNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	nb.mu.RLock()
	defer nb.mu.RUnlock()

	logProba, err := nb.predictLogProba("PredictProba", X)
	if err != nil {
		return nil, err
	}
	logProba.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, logProba)
	return logProba, nil
}

// Score は X に対する予測の正解率を返す
func (nb *MultinomialNB) Score(X, y mat.Matrix) (float64, error) {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, pred)
}

// IsFitted は少なくとも1バッチ学習済みかを返す
func (nb *MultinomialNB) IsFitted() bool {
	return nb.state.IsFitted()
}

// Classes は学習時に宣言されたクラスを返す
func (nb *MultinomialNB) Classes() []int {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return append([]int(nil), nb.classes...)
}

// NSamplesSeen はこれまでに学習したサンプル数を返す
func (nb *MultinomialNB) NSamplesSeen() int {
	_, n := nb.state.GetDimensions()
	return n
}

// ClassCount はクラス毎のサンプル数を返す
func (nb *MultinomialNB) ClassCount() []float64 {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return append([]float64(nil), nb.classCount...)
}

// FeatureCount はクラス毎の特徴量カウント (nClasses×nFeatures) のコピーを返す
func (nb *MultinomialNB) FeatureCount() *mat.Dense {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	if nb.featureCount == nil {
		return nil
	}
	return mat.DenseCopyOf(nb.featureCount)
}

// Save はモデルを gob 形式でファイルに保存する
func (nb *MultinomialNB) Save(path string) error {
	return model.SaveModel(nb, path)
}

// Load は Save で保存したモデルを読み込む
func (nb *MultinomialNB) Load(path string) error {
	return model.LoadModel(nb, path)
}

// snapshot は gob でエンコードされる永続化形式
type snapshot struct {
	Alpha        float64
	FitPrior     bool
	ClassPrior   []float64
	Classes      []int
	ClassCount   []float64
	FeatureCount []float64
	NFeatures    int
	Fitted       bool
	NSamples     int
	NBatches     int
}

// GobEncode implements gob.GobEncoder.
func (nb *MultinomialNB) GobEncode() ([]byte, error) {
	nb.mu.RLock()
	defer nb.mu.RUnlock()

	s := snapshot{
		Alpha:      nb.alpha,
		FitPrior:   nb.fitPrior,
		ClassPrior: nb.classPrior,
		Classes:    nb.classes,
		ClassCount: nb.classCount,
		Fitted:     nb.state.IsFitted(),
		NBatches:   nb.state.Batches(),
	}
	s.NFeatures, s.NSamples = nb.state.GetDimensions()
	if nb.featureCount != nil {
		s.FeatureCount = mat.DenseCopyOf(nb.featureCount).RawMatrix().Data
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, errors.Wrap(err, "encode MultinomialNB")
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (nb *MultinomialNB) GobDecode(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return errors.Wrap(err, "decode MultinomialNB")
	}
	if s.FeatureCount != nil && len(s.FeatureCount) != len(s.Classes)*s.NFeatures {
		return errors.NewValueError("MultinomialNB.GobDecode", "feature counts do not match classes and features")
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()

	if nb.state == nil {
		nb.state = model.NewStateManager()
	}
	if nb.logger == nil {
		nb.logger = log.GetLogger().With(log.ModelNameKey, modelName)
	}
	nb.reset()
	nb.alpha, nb.fitPrior, nb.classPrior = s.Alpha, s.FitPrior, s.ClassPrior
	if !s.Fitted {
		return nil
	}

	nb.classes = s.Classes
	nb.classCount = s.ClassCount
	nb.featureCount = mat.NewDense(len(s.Classes), s.NFeatures, s.FeatureCount)
	nb.classLogPrior, nb.featureLogProb = nb.derive(nb.classCount, nb.featureCount)
	nb.state.Fitted = true
	nb.state.NFeatures = s.NFeatures
	nb.state.NSamples = s.NSamples
	nb.state.NBatches = s.NBatches
	return nil
}

// reset は学習済み統計を破棄する。呼び出し側でロックを取ること
func (nb *MultinomialNB) reset() {
	nb.classes = nil
	nb.classCount = nil
	nb.featureCount = nil
	nb.classLogPrior = nil
	nb.featureLogProb = nil
	nb.state.Reset()
}

func uniqueLabels(y mat.Matrix) ([]int, error) {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) || math.IsNaN(v) {
			return nil, errors.NewValueError("MultinomialNB.Fit", "labels must be integers")
		}
		seen[int(v)] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes, nil
}

func normalizeClasses(classes []int) ([]int, error) {
	out := append([]int(nil), classes...)
	sort.Ints(out)
	for i := 1; i < len(out); i++ {
		if out[i] == out[i-1] {
			return nil, errors.NewValueError("MultinomialNB.PartialFit", "classes must be unique")
		}
	}
	return out, nil
}

func checkPrior(prior []float64, nClasses int) error {
	if nClasses > 0 && len(prior) != nClasses {
		return errors.Newf("expected %d class priors, got %d", nClasses, len(prior))
	}
	sum := 0.0
	for _, p := range prior {
		if p < 0 || math.IsNaN(p) {
			return errors.New("priors must be non-negative")
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		return errors.Newf("priors must sum to 1, got %v", sum)
	}
	return nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
