package solvers

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/ports"
)

// ExactSolver partitions units by identical covariate-value tuples.
// Tuples present in only one group form no stratum; their units stay
// unassigned.
type ExactSolver struct{}

func (s *ExactSolver) Method() match.Method { return match.MethodExact }

func (s *ExactSolver) Solve(ctx context.Context, req ports.SolveRequest) (*match.Assignment, error) {
	keyOf := func(i int) string {
		return covariateTuple(req.Dataset.Unit(i), req.Formula.Covariates)
	}
	return solveByKey(req, keyOf), nil
}

// covariateTuple renders a unit's covariate tuple bit-exactly;
// strconv 'b' formatting distinguishes every float64 bit pattern
func covariateTuple(u *match.Unit, keys []core.CovariateKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.FormatFloat(u.Covariates[k], 'b', -1, 64)
	}
	return strings.Join(parts, "|")
}

// solveByKey groups candidate units by a tuple key and keeps only
// groups with both treated and control members
func solveByKey(req ports.SolveRequest, keyOf func(i int) string) *match.Assignment {
	ds := req.Dataset
	m := req.Matrix

	type bucket struct {
		treated []int
		control []int
	}
	buckets := make(map[string]*bucket)
	var keys []string

	add := func(idx int, treated bool) {
		k := keyOf(idx)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
			keys = append(keys, k)
		}
		if treated {
			b.treated = append(b.treated, idx)
		} else {
			b.control = append(b.control, idx)
		}
	}

	for row, tIdx := range m.TreatedIdx {
		if rowFeasible(m, row) {
			add(tIdx, true)
		}
	}
	for col, cIdx := range m.ControlIdx {
		if colFeasible(m, col) {
			add(cIdx, false)
		}
	}

	sort.Strings(keys)
	assignment := match.NewAssignment()
	stratum := 0
	for _, k := range keys {
		b := buckets[k]
		if len(b.treated) == 0 || len(b.control) == 0 {
			continue // one-sided tuple, members stay unassigned
		}
		for _, idx := range b.treated {
			assignment.Assign(ds.Unit(idx).ID, stratum)
		}
		for _, idx := range b.control {
			assignment.Assign(ds.Unit(idx).ID, stratum)
		}
		stratum++
	}
	return assignment
}
