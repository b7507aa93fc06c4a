package errors

import "math"

// Matrix is the read-only view CheckFinite needs; gonum's mat.Matrix satisfies it.
type Matrix interface {
	Dims() (r, c int)
	At(i, j int) float64
}

// CheckFinite returns a NumericalInstabilityError for the first NaN or Inf
// in m, scanning row by row.
func CheckFinite(operation string, m Matrix) error {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return NewNumericalInstabilityError(operation, i, j, v)
			}
		}
	}
	return nil
}
