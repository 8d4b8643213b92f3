package distance

import (
	"math"

	"gomatch/domain/core"
	"gomatch/domain/match"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// mahalanobisMatrix fills a distance matrix with Mahalanobis norms of
// treated-control covariate differences under the pooled covariance.
// A covariance that is not positive definite means collinear covariates;
// that surfaces as a singular-covariance error for the caller to fix.
func mahalanobisMatrix(ds *match.Dataset, formula match.Formula) (*match.DistanceMatrix, error) {
	x := covariateMatrix(ds, formula)
	_, p := x.Dims()

	cov := mat.NewSymDense(p, nil)
	stat.CovarianceMatrix(cov, x, nil)

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		names := make([]string, len(formula.Covariates))
		for i, k := range formula.Covariates {
			names[i] = k.String()
		}
		return nil, core.NewSingularCovarianceError(names)
	}

	m := match.NewDistanceMatrix(ds)
	diff := mat.NewVecDense(p, nil)
	solved := mat.NewVecDense(p, nil)

	for r, tIdx := range m.TreatedIdx {
		for c, cIdx := range m.ControlIdx {
			for j := 0; j < p; j++ {
				diff.SetVec(j, x.At(tIdx, j)-x.At(cIdx, j))
			}
			if err := chol.SolveVecTo(solved, diff); err != nil {
				names := make([]string, len(formula.Covariates))
				for i, k := range formula.Covariates {
					names[i] = k.String()
				}
				return nil, core.NewSingularCovarianceError(names)
			}
			m.Dist[r][c] = math.Sqrt(mat.Dot(diff, solved))
		}
	}
	return m, nil
}
