package drift

import (
	"math"
	"sync"
)

// ADWIN (Adaptive Windowing)
// A. Bifet, R. Gavalda (2007) "Learning from time-changing data with adaptive windowing"
//
// エラー(1)/正解(0) の列を最大2件ずつのバケットにまとめて保持し、ウィンドウを
// 2分割した平均の差がホフディング境界を超えたら古い側を捨ててドリフトとする。
// 指数ヒストグラムではない。バケット数が maxBuckets を超えると最古のバケットを
// 捨てるので、ウィンドウは最大 2*maxBuckets 件のスライディングウィンドウになる。
type ADWIN struct {
	delta      float64
	maxBuckets int

	buckets    []bucket
	totalSum   float64
	totalCount int

	mu sync.Mutex
}

type bucket struct {
	sum   float64
	count int
}

// ADWINOption は ADWIN の設定オプション
type ADWINOption func(*ADWIN)

// WithADWINDelta は信頼度パラメータを設定する（小さいほど鈍感）
func WithADWINDelta(delta float64) ADWINOption {
	return func(a *ADWIN) {
		a.delta = delta
	}
}

// WithADWINMaxBuckets は保持するバケット数の上限を設定する
func WithADWINMaxBuckets(max int) ADWINOption {
	return func(a *ADWIN) {
		a.maxBuckets = max
	}
}

// NewADWIN は新しい ADWIN を作成する
func NewADWIN(options ...ADWINOption) *ADWIN {
	a := &ADWIN{
		delta:      0.002,
		maxBuckets: 1000,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Name implements Detector.
func (a *ADWIN) Name() string { return "ADWIN" }

// Observe implements Detector.
func (a *ADWIN) Observe(correct bool) Signal {
	value := 1.0
	if correct {
		value = 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.add(value)
	drift, bound := a.detect()
	sig := Signal{Drift: drift, Warning: drift, Threshold: bound}
	if a.totalCount > 0 {
		sig.ErrorRate = a.totalSum / float64(a.totalCount)
	}
	return sig
}

// Width は現在のウィンドウ幅を返す
func (a *ADWIN) Width() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalCount
}

// Mean は現在のウィンドウのエラー率を返す
func (a *ADWIN) Mean() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.totalCount == 0 {
		return 0
	}
	return a.totalSum / float64(a.totalCount)
}

// Reset implements Detector.
func (a *ADWIN) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buckets = nil
	a.totalSum = 0
	a.totalCount = 0
}

func (a *ADWIN) add(value float64) {
	if n := len(a.buckets); n > 0 && a.buckets[n-1].count == 1 {
		a.buckets[n-1].sum += value
		a.buckets[n-1].count++
	} else {
		a.buckets = append(a.buckets, bucket{sum: value, count: 1})
	}
	a.totalSum += value
	a.totalCount++

	if len(a.buckets) > a.maxBuckets {
		oldest := a.buckets[0]
		a.totalSum -= oldest.sum
		a.totalCount -= oldest.count
		a.buckets = a.buckets[1:]
	}
}

// detect は全ての分割点を調べ、ドリフトがあれば古い側を削除する。
// 戻り値の bound はドリフトを判定した分割点、または最後に調べた分割点の境界
func (a *ADWIN) detect() (bool, float64) {
	bound := math.Inf(1)
	if len(a.buckets) < 2 || a.totalCount < 5 {
		return false, bound
	}

	sum0, n0 := 0.0, 0
	for i := 1; i < len(a.buckets); i++ {
		sum0 += a.buckets[i-1].sum
		n0 += a.buckets[i-1].count
		n1 := a.totalCount - n0
		if n1 <= 0 {
			continue
		}
		mean0 := sum0 / float64(n0)
		mean1 := (a.totalSum - sum0) / float64(n1)

		m := 1.0/float64(n0) + 1.0/float64(n1)
		bound = math.Sqrt(0.5 * m * math.Log(2.0/a.delta))
		if math.Abs(mean0-mean1) > bound {
			a.buckets = append([]bucket(nil), a.buckets[i:]...)
			a.totalCount -= n0
			a.totalSum -= sum0
			return true, bound
		}
	}
	return false, bound
}
