package physics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// imagTolerance decides when an eigenvalue counts as real.
	imagTolerance = 1e-9
	// leadTolerance drops vanishing leading coefficients so the degree falls.
	leadTolerance = 1e-14
)

// RealRoots returns the real roots of the polynomial whose coefficients are
// given from the highest power down, e.g. {a, b, c} for at²+bt+c.
// Roots are the eigenvalues of the companion matrix.
func RealRoots(coeffs []float64) []float64 {
	for len(coeffs) > 0 && math.Abs(coeffs[0]) < leadTolerance {
		coeffs = coeffs[1:]
	}
	for _, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil
		}
	}

	degree := len(coeffs) - 1
	switch {
	case degree < 1:
		return nil
	case degree == 1:
		return []float64{-coeffs[1] / coeffs[0]}
	}

	companion := mat.NewDense(degree, degree, nil)
	for j := 0; j < degree; j++ {
		companion.Set(0, j, -coeffs[j+1]/coeffs[0])
	}
	for i := 1; i < degree; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil
	}

	var roots []float64
	for _, v := range eig.Values(nil) {
		if math.Abs(imag(v)) <= imagTolerance*math.Max(1, math.Abs(real(v))) {
			roots = append(roots, real(v))
		}
	}
	return roots
}

// SmallestPositiveRoot returns the earliest real root strictly after minT,
// or +Inf when there is none.
func SmallestPositiveRoot(coeffs []float64, minT float64) float64 {
	best := math.Inf(1)
	for _, r := range RealRoots(coeffs) {
		if r > minT && r < best {
			best = r
		}
	}
	return best
}
