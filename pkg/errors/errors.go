// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// バッチ学習パイプラインの各段階（設定・バッチ供給・学習・永続化）に対応する構造化エラーを定義します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("skbatch-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	パイプライン段階のエラー型
//
// ===========================================================================

// ConfigurationError はハイパーパラメータのキーまたは値が不正な場合のエラーです。
// 最初のバッチが処理される前に発生し、実行全体を中断します。
type ConfigurationError struct {
	Param  string
	Reason string
	Value  interface{}
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("skbatch: configuration: parameter '%s': %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("skbatch: configuration: parameter '%s': %s (got: %v)", e.Param, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigurationError")
}

// NewConfigurationError は新しいConfigurationErrorを作成し、スタックトレースを付与します。
func NewConfigurationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ConfigurationError{Param: param, Reason: reason, Value: value})
}

// BatchShapeError はバッチ内の特徴量行数とラベル数が一致しない場合のエラーです。
type BatchShapeError struct {
	Batch       int // 1始まりのバッチ番号
	FeatureRows int
	LabelRows   int
	LabelCols   int
}

func (e *BatchShapeError) Error() string {
	if e.LabelCols != 1 {
		return fmt.Sprintf("skbatch: batch %d: labels must be a single column, got %d columns", e.Batch, e.LabelCols)
	}
	return fmt.Sprintf("skbatch: batch %d: feature rows (%d) and label count (%d) differ", e.Batch, e.FeatureRows, e.LabelRows)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *BatchShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("batch", e.Batch).
		Int("feature_rows", e.FeatureRows).
		Int("label_rows", e.LabelRows).
		Int("label_cols", e.LabelCols).
		Str("type", "BatchShapeError")
}

// NewBatchShapeError は新しいBatchShapeErrorを作成し、スタックトレースを付与します。
func NewBatchShapeError(batch, featureRows, labelRows, labelCols int) error {
	return errors.WithStack(&BatchShapeError{Batch: batch, FeatureRows: featureRows, LabelRows: labelRows, LabelCols: labelCols})
}

// LabelRangeError はラベルが宣言されたラベル空間 [0, LabelSize) の外にある場合のエラーです。
type LabelRangeError struct {
	Batch     int
	Row       int
	Label     float64
	LabelSize int
}

func (e *LabelRangeError) Error() string {
	return fmt.Sprintf("skbatch: batch %d row %d: label %v outside label space [0, %d)", e.Batch, e.Row, e.Label, e.LabelSize)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *LabelRangeError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("batch", e.Batch).
		Int("row", e.Row).
		Float64("label", e.Label).
		Int("label_size", e.LabelSize).
		Str("type", "LabelRangeError")
}

// NewLabelRangeError は新しいLabelRangeErrorを作成し、スタックトレースを付与します。
func NewLabelRangeError(batch, row int, label float64, labelSize int) error {
	return errors.WithStack(&LabelRangeError{Batch: batch, Row: row, Label: label, LabelSize: labelSize})
}

// FitError は逐次学習の呼び出し自体が失敗した場合のエラーです。
// 部分的に更新された学習状態の整合性は保証されないため、リトライしません。
type FitError struct {
	Batch int
	Err   error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("skbatch: batch %d: incremental fit failed: %v", e.Batch, e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FitError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("batch", e.Batch).
		AnErr("cause", e.Err).
		Str("type", "FitError")
}

// NewFitError は新しいFitErrorを作成し、スタックトレースを付与します。
func NewFitError(batch int, err error) error {
	return errors.WithStack(&FitError{Batch: batch, Err: err})
}

// SourceError は上流のバッチソースが失敗した場合のエラーです。
type SourceError struct {
	Batch int
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("skbatch: batch %d: source failed: %v", e.Batch, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SourceError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("batch", e.Batch).
		AnErr("cause", e.Err).
		Str("type", "SourceError")
}

// NewSourceError は新しいSourceErrorを作成し、スタックトレースを付与します。
func NewSourceError(batch int, err error) error {
	return errors.WithStack(&SourceError{Batch: batch, Err: err})
}

// PersistenceError はモデルを保存先へ書き込めなかった場合のエラーです。
// 学習状態はメモリ上では有効なまま残ります。
type PersistenceError struct {
	Destination string
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("skbatch: persist %q: %v", e.Destination, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PersistenceError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("destination", e.Destination).
		AnErr("cause", e.Err).
		Str("type", "PersistenceError")
}

// NewPersistenceError は新しいPersistenceErrorを作成し、スタックトレースを付与します。
func NewPersistenceError(destination string, err error) error {
	return errors.WithStack(&PersistenceError{Destination: destination, Err: err})
}

// Stage はパイプラインの実行段階を表します。
type Stage string

const (
	StageConfiguration Stage = "configuration"
	StageBatch         Stage = "batch"
	StagePersistence   Stage = "persistence"
)

// StageError は失敗した段階（configuration / batch N / persistence）を特定するラッパーです。
type StageError struct {
	Stage Stage
	Batch int // StageBatch の場合のみ意味を持つ
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage == StageBatch {
		return fmt.Sprintf("run failed at %s %d: %v", e.Stage, e.Batch, e.Err)
	}
	return fmt.Sprintf("run failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *StageError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage", string(e.Stage)).
		AnErr("cause", e.Err).
		Str("type", "StageError")
	if e.Stage == StageBatch {
		event.Int("batch", e.Batch)
	}
}

// NewStageError は新しいStageErrorを作成します。
func NewStageError(stage Stage, batch int, err error) error {
	return errors.WithStack(&StageError{Stage: stage, Batch: batch, Err: err})
}

// ===========================================================================
//
//	モデル関連のエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` などを呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("skbatch: %s: this model is not fitted yet. Call Fit() or PartialFit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("skbatch: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("skbatch: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切な場合のエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("skbatch: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// NumericalInstabilityError は入力に NaN / Inf が含まれる場合のエラーです。
// Row と Col は最初に見つかった値の位置です。
type NumericalInstabilityError struct {
	Operation string
	Row, Col  int
	Value     float64
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("skbatch: %s: non-finite value %v at row %d, col %d", e.Operation, e.Value, e.Row, e.Col)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Int("row", e.Row).
		Int("col", e.Col).
		Float64("value", e.Value)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, row, col int, value float64) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Row: row, Col: col, Value: value})
}

// ModelDriftWarning はモデルドリフトが検出された場合の警告です。
type ModelDriftWarning struct {
	DriftScore float64
	Threshold  float64
	Detector   string
	Action     string
	Batch      int
}

func (w *ModelDriftWarning) Error() string {
	return fmt.Sprintf("Model drift detected by %s at batch %d: score=%.4f (threshold=%.4f). Recommended action: %s",
		w.Detector, w.Batch, w.DriftScore, w.Threshold, w.Action)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ModelDriftWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("detector", w.Detector).
		Int("batch", w.Batch).
		Float64("score", w.DriftScore).
		Float64("threshold", w.Threshold).
		Str("action", w.Action).
		Str("type", "ModelDriftWarning")
}

// NewModelDriftWarning は新しいModelDriftWarningを作成します。
func NewModelDriftWarning(detector string, batch int, score, threshold float64, action string) *ModelDriftWarning {
	return &ModelDriftWarning{
		Detector:   detector,
		Batch:      batch,
		DriftScore: score,
		Threshold:  threshold,
		Action:     action,
	}
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// GetSafeDetails はスタックトレースなどの安全な詳細情報を取り出します。
func GetSafeDetails(err error) []string {
	return errors.GetSafeDetails(err).SafeDetails
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrDriverFinished は完了済みのドライバを再実行しようとした場合のエラーです。
	ErrDriverFinished = New("driver has already run; create a new driver for a new run")
)
