package solvers

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/ports"
)

// CoarsenedExactSolver bins each covariate deterministically and runs
// exact matching on the discretized tuples. Explicit cutpoints win over
// a requested bin count; covariates with neither get Sturges bins.
type CoarsenedExactSolver struct{}

func (s *CoarsenedExactSolver) Method() match.Method { return match.MethodCoarsenedExact }

func (s *CoarsenedExactSolver) Solve(ctx context.Context, req ports.SolveRequest) (*match.Assignment, error) {
	ds := req.Dataset
	binners := make(map[core.CovariateKey]func(float64) int, len(req.Formula.Covariates))
	for _, key := range req.Formula.Covariates {
		binners[key] = makeBinner(ds, key, req.Config)
	}

	keyOf := func(i int) string {
		u := ds.Unit(i)
		parts := make([]string, len(req.Formula.Covariates))
		for j, key := range req.Formula.Covariates {
			parts[j] = strconv.Itoa(binners[key](u.Covariates[key]))
		}
		return strings.Join(parts, "|")
	}
	return solveByKey(req, keyOf), nil
}

// makeBinner returns the deterministic bin function for one covariate
func makeBinner(ds *match.Dataset, key core.CovariateKey, cfg match.Config) func(float64) int {
	if cuts, ok := cfg.Cutpoints[key]; ok && len(cuts) > 0 {
		sorted := append([]float64(nil), cuts...)
		sort.Float64s(sorted)
		return func(v float64) int {
			return sort.SearchFloat64s(sorted, v)
		}
	}

	bins := cfg.Bins[key]
	if bins < 1 {
		bins = sturges(ds.Len())
	}

	col := ds.Column(key)
	lo, hi := col[0], col[0]
	for _, v := range col {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return func(float64) int { return 0 }
	}

	width := (hi - lo) / float64(bins)
	return func(v float64) int {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1 // the max lands in the last bin
		}
		if b < 0 {
			b = 0
		}
		return b
	}
}

func sturges(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}
