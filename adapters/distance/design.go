package distance

import (
	"gomatch/domain/match"

	"gonum.org/v1/gonum/mat"
)

// designMatrix builds the n×(p+1) design with a leading intercept
// column, plus the 0/1 treatment response vector
func designMatrix(ds *match.Dataset, formula match.Formula) (*mat.Dense, []float64) {
	n := ds.Len()
	p := len(formula.Covariates)

	x := mat.NewDense(n, p+1, nil)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		u := ds.Unit(i)
		x.Set(i, 0, 1)
		for j, key := range formula.Covariates {
			x.Set(i, j+1, u.Covariates[key])
		}
		if u.Treated() {
			y[i] = 1
		}
	}
	return x, y
}

// covariateMatrix builds the n×p matrix of raw covariate values
// (no intercept), used for Mahalanobis distances
func covariateMatrix(ds *match.Dataset, formula match.Formula) *mat.Dense {
	n := ds.Len()
	p := len(formula.Covariates)

	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		u := ds.Unit(i)
		for j, key := range formula.Covariates {
			x.Set(i, j, u.Covariates[key])
		}
	}
	return x
}
