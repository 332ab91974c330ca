// Package numerics holds the statistical primitives shared by the scenario
// generator and the simulation engine.
package numerics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// diagFloor clamps near-singular diagonals during Cholesky decomposition so
// the square root stays real.
const diagFloor = 1e-10

// Mean returns the arithmetic mean. The input must be non-empty; callers
// guarantee this.
func Mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation. The input must be
// non-empty.
func StdDev(xs []float64) float64 {
	mean := Mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// Percentile returns the p-th percentile (p in [0,1]) of a pre-sorted
// sequence, linearly interpolating between order statistics.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Correlation returns the sample correlation between two equal-length series.
func Correlation(x, y []float64) float64 {
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		// Constant series have undefined correlation; report none.
		return 0
	}
	return c
}

// Cholesky decomposes a symmetric positive-definite matrix into its lower
// triangular factor. Diagonal terms are floored at a small positive minimum
// before the square root, so near-singular inputs produce a usable factor
// instead of NaNs.
func Cholesky(m [][]float64) [][]float64 {
	n := len(m)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := m[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum < diagFloor {
					sum = diagFloor
				}
				l[i][j] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l
}

// MVNSample maps a vector of independent standard normals through a Cholesky
// factor, producing one correlated multivariate-normal draw.
func MVNSample(chol [][]float64, z []float64) []float64 {
	n := len(chol)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j <= i; j++ {
			sum += chol[i][j] * z[j]
		}
		out[i] = sum
	}
	return out
}
