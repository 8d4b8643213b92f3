package balance

import (
	"math"
	"sort"
)

// weightedECDF evaluates a weighted empirical CDF at arbitrary points
type weightedECDF struct {
	values []float64
	cumsum []float64
	totalW float64
}

// newWeightedECDF builds the step function from (value, weight) pairs.
// Zero-weight observations drop out; a zero total weight yields an
// undefined (NaN-valued) CDF.
func newWeightedECDF(values, weights []float64) *weightedECDF {
	type vw struct {
		v, w float64
	}
	pairs := make([]vw, 0, len(values))
	for i, v := range values {
		if weights[i] > 0 {
			pairs = append(pairs, vw{v: v, w: weights[i]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	e := &weightedECDF{
		values: make([]float64, len(pairs)),
		cumsum: make([]float64, len(pairs)),
	}
	run := 0.0
	for i, p := range pairs {
		run += p.w
		e.values[i] = p.v
		e.cumsum[i] = run
	}
	e.totalW = run
	return e
}

// At returns the CDF value at x
func (e *weightedECDF) At(x float64) float64 {
	if e.totalW == 0 {
		return math.NaN()
	}
	// rightmost value ≤ x
	i := sort.SearchFloat64s(e.values, math.Nextafter(x, math.Inf(1)))
	if i == 0 {
		return 0
	}
	return e.cumsum[i-1] / e.totalW
}

// ecdfDiff computes the max and mean absolute difference between two
// weighted eCDFs evaluated at every observed value of the covariate
func ecdfDiff(valsT, wT, valsC, wC []float64) (maxDiff, meanDiff float64) {
	ft := newWeightedECDF(valsT, wT)
	fc := newWeightedECDF(valsC, wC)
	if ft.totalW == 0 || fc.totalW == 0 {
		return math.NaN(), math.NaN()
	}

	points := make([]float64, 0, len(valsT)+len(valsC))
	points = append(points, valsT...)
	points = append(points, valsC...)
	sort.Float64s(points)

	sum := 0.0
	n := 0
	last := math.NaN()
	for _, p := range points {
		if p == last {
			continue
		}
		last = p
		d := math.Abs(ft.At(p) - fc.At(p))
		if d > maxDiff {
			maxDiff = d
		}
		sum += d
		n++
	}
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	return maxDiff, sum / float64(n)
}
