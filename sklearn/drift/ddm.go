// Package drift detects concept drift in a stream of prediction outcomes and
// wraps a batch trainer so that each batch is scored before it is learned.
package drift

import (
	"math"
	"sync"
)

// Signal は1回の観測後の検出器の状態
type Signal struct {
	Warning   bool    // 警告レベルを超えた
	Drift     bool    // ドリフトレベルを超えた（検出器はリセット済み）
	ErrorRate float64 // 現在のエラー率
	Threshold float64 // ドリフト判定に使った閾値
}

// Detector はドリフト検出器の共通インターフェース
type Detector interface {
	// Name は検出器の名前（ログと警告に使う）
	Name() string
	// Observe は1件の予測結果で検出器を更新する
	Observe(correct bool) Signal
	// Reset は統計を初期状態に戻す
	Reset()
}

// DDM (Drift Detection Method)
// J. Gama, P. Medas, G. Castillo, P. Rodrigues (2004) "Learning with Drift Detection"
//
// エラー率 p と標準偏差 s を追跡し、p+s が過去最小値 pmin+smin から
// warningLevel*smin を超えると警告、outControlLevel*smin を超えるとドリフトとする。
type DDM struct {
	minNumInstances int
	warningLevel    float64
	outControlLevel float64

	numInstances int
	numErrors    int
	errorRate    float64
	stdDev       float64
	minErrorRate float64
	minStdDev    float64

	mu sync.Mutex
}

// DDMOption は DDM の設定オプション
type DDMOption func(*DDM)

// WithDDMMinNumInstances は判定を始めるまでの最小サンプル数を設定する
func WithDDMMinNumInstances(n int) DDMOption {
	return func(ddm *DDM) {
		ddm.minNumInstances = n
	}
}

// WithDDMWarningLevel は警告レベル（標準偏差の倍数）を設定する
func WithDDMWarningLevel(level float64) DDMOption {
	return func(ddm *DDM) {
		ddm.warningLevel = level
	}
}

// WithDDMOutControlLevel はドリフトレベル（標準偏差の倍数）を設定する
func WithDDMOutControlLevel(level float64) DDMOption {
	return func(ddm *DDM) {
		ddm.outControlLevel = level
	}
}

// NewDDM は新しい DDM を作成する
func NewDDM(options ...DDMOption) *DDM {
	ddm := &DDM{
		minNumInstances: 30,
		warningLevel:    2.0,
		outControlLevel: 3.0,
	}
	for _, opt := range options {
		opt(ddm)
	}
	ddm.resetLocked()
	return ddm
}

// Name implements Detector.
func (ddm *DDM) Name() string { return "DDM" }

// Observe implements Detector.
func (ddm *DDM) Observe(correct bool) Signal {
	ddm.mu.Lock()
	defer ddm.mu.Unlock()

	ddm.numInstances++
	if !correct {
		ddm.numErrors++
	}

	n := float64(ddm.numInstances)
	ddm.errorRate = float64(ddm.numErrors) / n
	ddm.stdDev = math.Sqrt(ddm.errorRate * (1.0 - ddm.errorRate) / n)

	sig := Signal{ErrorRate: ddm.errorRate, Threshold: math.Inf(1)}
	if ddm.numInstances < ddm.minNumInstances {
		return sig
	}

	level := ddm.errorRate + ddm.stdDev
	if level < ddm.minErrorRate+ddm.minStdDev {
		ddm.minErrorRate = ddm.errorRate
		ddm.minStdDev = ddm.stdDev
	}

	sig.Threshold = ddm.minErrorRate + ddm.outControlLevel*ddm.minStdDev
	switch {
	case level > sig.Threshold:
		sig.Drift = true
		sig.Warning = true
		ddm.resetLocked()
	case level > ddm.minErrorRate+ddm.warningLevel*ddm.minStdDev:
		sig.Warning = true
	}
	return sig
}

// Reset implements Detector.
func (ddm *DDM) Reset() {
	ddm.mu.Lock()
	defer ddm.mu.Unlock()
	ddm.resetLocked()
}

func (ddm *DDM) resetLocked() {
	ddm.numInstances = 0
	ddm.numErrors = 0
	ddm.errorRate = 0
	ddm.stdDev = 0
	ddm.minErrorRate = math.Inf(1)
	ddm.minStdDev = math.Inf(1)
}

// DDMStatistics は DDM の統計情報
type DDMStatistics struct {
	NumInstances int
	NumErrors    int
	ErrorRate    float64
	StdDev       float64
	MinErrorRate float64
	MinStdDev    float64
}

// Statistics は現在の統計情報を返す
func (ddm *DDM) Statistics() DDMStatistics {
	ddm.mu.Lock()
	defer ddm.mu.Unlock()
	return DDMStatistics{
		NumInstances: ddm.numInstances,
		NumErrors:    ddm.numErrors,
		ErrorRate:    ddm.errorRate,
		StdDev:       ddm.stdDev,
		MinErrorRate: ddm.minErrorRate,
		MinStdDev:    ddm.minStdDev,
	}
}
