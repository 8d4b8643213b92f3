package distance

import (
	"context"
	"math"

	"gomatch/domain/core"
	"gomatch/domain/match"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// probability clamp keeping IRLS weights strictly positive
	probEps = 1e-10

	defaultFitTolerance = 1e-8
	defaultFitMaxIter   = 50
)

// PropensityScorer fits a binomial GLM of treatment on the formula
// covariates by iteratively reweighted least squares and scores every
// unit with its fitted treatment probability.
type PropensityScorer struct {
	link    match.Link
	tol     float64
	maxIter int
}

// NewPropensityScorer creates a scorer for the given link function
func NewPropensityScorer(link match.Link) *PropensityScorer {
	return &PropensityScorer{
		link:    link,
		tol:     defaultFitTolerance,
		maxIter: defaultFitMaxIter,
	}
}

// Score fits the model and returns per-unit treatment probabilities.
// Fails with a model-fit error when IRLS does not converge or the
// weighted normal equations are singular; there is no internal retry.
func (s *PropensityScorer) Score(ctx context.Context, ds *match.Dataset, formula match.Formula) (map[core.UnitID]float64, error) {
	x, y := designMatrix(ds, formula)
	n, p := x.Dims()

	covNames := make([]string, len(formula.Covariates))
	for i, k := range formula.Covariates {
		covNames[i] = k.String()
	}

	beta := mat.NewVecDense(p, nil)
	eta := mat.NewVecDense(n, nil)
	norm := distuv.Normal{Mu: 0, Sigma: 1}

	mu := make([]float64, n)
	w := make([]float64, n)
	z := make([]float64, n)

	converged := false
	iter := 0
	for ; iter < s.maxIter; iter++ {
		eta.MulVec(x, beta)

		for i := 0; i < n; i++ {
			e := eta.AtVec(i)
			switch s.link {
			case match.LinkProbit:
				m := clampProb(norm.CDF(e))
				d := norm.Prob(e)
				if d < probEps {
					d = probEps
				}
				mu[i] = m
				w[i] = d * d / (m * (1 - m))
				z[i] = e + (y[i]-m)/d
			default: // logit
				m := clampProb(1 / (1 + math.Exp(-e)))
				mu[i] = m
				w[i] = m * (1 - m)
				z[i] = e + (y[i]-m)/w[i]
			}
		}

		// Weighted normal equations: (XᵀWX) β = XᵀWz
		xtw := mat.NewDense(p, n, nil)
		for j := 0; j < p; j++ {
			for i := 0; i < n; i++ {
				xtw.Set(j, i, x.At(i, j)*w[i])
			}
		}
		var xtwx mat.Dense
		xtwx.Mul(xtw, x)
		xtwz := mat.NewVecDense(p, nil)
		xtwz.MulVec(xtw, mat.NewVecDense(n, z))

		next := mat.NewVecDense(p, nil)
		if err := next.SolveVec(&xtwx, xtwz); err != nil {
			return nil, core.NewModelFitError(string(s.link), covNames, iter, err)
		}

		delta := 0.0
		for j := 0; j < p; j++ {
			if d := math.Abs(next.AtVec(j) - beta.AtVec(j)); d > delta {
				delta = d
			}
		}
		beta.CopyVec(next)

		if delta < s.tol {
			converged = true
			break
		}
	}

	if !converged {
		return nil, core.NewModelFitError(string(s.link), covNames, iter, nil)
	}

	// Final scores from the converged coefficients
	eta.MulVec(x, beta)
	scores := make(map[core.UnitID]float64, n)
	for i := 0; i < n; i++ {
		e := eta.AtVec(i)
		var m float64
		if s.link == match.LinkProbit {
			m = norm.CDF(e)
		} else {
			m = 1 / (1 + math.Exp(-e))
		}
		scores[ds.Unit(i).ID] = clampProb(m)
	}
	return scores, nil
}

func clampProb(p float64) float64 {
	if p < probEps {
		return probEps
	}
	if p > 1-probEps {
		return 1 - probEps
	}
	return p
}
