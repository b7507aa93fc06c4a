// Package metrics provides evaluation metrics for classifiers.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

// Accuracy は正解率（一致した予測の割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := checkVectors("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// AccuracyScore computes accuracy for column matrices (n×1), the shape
// returned by Predict and carried by batch labels.
func AccuracyScore(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := columnToVec("AccuracyScore", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := columnToVec("AccuracyScore", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(t, p)
}

// ConfusionMatrix counts (true, predicted) label pairs over [0, labelSize).
// Row i, column j holds the number of samples with label i predicted as j.
func ConfusionMatrix(yTrue, yPred mat.Matrix, labelSize int) (*mat.Dense, error) {
	if labelSize <= 0 {
		return nil, errors.NewValidationError("label_size", "must be greater than 0", labelSize)
	}
	t, err := columnToVec("ConfusionMatrix", yTrue)
	if err != nil {
		return nil, err
	}
	p, err := columnToVec("ConfusionMatrix", yPred)
	if err != nil {
		return nil, err
	}
	if err := checkVectors("ConfusionMatrix", t, p); err != nil {
		return nil, err
	}

	cm := mat.NewDense(labelSize, labelSize, nil)
	for i := 0; i < t.Len(); i++ {
		ti, pi := int(t.AtVec(i)), int(p.AtVec(i))
		if ti < 0 || ti >= labelSize || pi < 0 || pi >= labelSize {
			return nil, errors.NewValueError("ConfusionMatrix", "label outside label space")
		}
		cm.Set(ti, pi, cm.At(ti, pi)+1)
	}
	return cm, nil
}

func checkVectors(op string, yTrue, yPred *mat.VecDense) error {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != yTrue.Len() {
		return errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return nil
}

func columnToVec(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	r, c := m.Dims()
	if r == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}
