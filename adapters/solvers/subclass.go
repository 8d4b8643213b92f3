package solvers

import (
	"context"
	"sort"

	"gomatch/domain/core"
	"gomatch/domain/match"
	"gomatch/ports"

	"gonum.org/v1/gonum/stat"
)

// SubclassSolver bins the scalar propensity score into a fixed number
// of ordered quantile bins and treats each bin as a stratum. Bins that
// end up one-sided are dropped by the standard validity pass.
type SubclassSolver struct{}

func (s *SubclassSolver) Method() match.Method { return match.MethodSubclass }

func (s *SubclassSolver) Solve(ctx context.Context, req ports.SolveRequest) (*match.Assignment, error) {
	ds := req.Dataset
	m := req.Matrix
	if m.Scores == nil {
		return nil, core.NewConfigError("method", "subclassification requires a propensity-score distance")
	}

	// Quantile cutpoints come from the group the estimand targets
	var refIdx []int
	switch req.Config.Estimand {
	case match.EstimandATC:
		refIdx = candidateIdx(m, false)
	case match.EstimandATE:
		refIdx = append(candidateIdx(m, true), candidateIdx(m, false)...)
	default: // ATT
		refIdx = candidateIdx(m, true)
	}

	ref := make([]float64, 0, len(refIdx))
	for _, i := range refIdx {
		ref = append(ref, m.Scores[ds.Unit(i).ID])
	}
	if len(ref) == 0 {
		return match.NewAssignment(), nil
	}
	sort.Float64s(ref)

	k := req.Config.Subclasses
	cuts := make([]float64, 0, k-1)
	for q := 1; q < k; q++ {
		cuts = append(cuts, stat.Quantile(float64(q)/float64(k), stat.Empirical, ref, nil))
	}

	assignment := match.NewAssignment()
	assign := func(indices []int) {
		for _, i := range indices {
			score := m.Scores[ds.Unit(i).ID]
			assignment.Assign(ds.Unit(i).ID, sort.SearchFloat64s(cuts, score))
		}
	}
	assign(candidateIdx(m, true))
	assign(candidateIdx(m, false))

	// all bins exist even when empty, so renumbering stays stable
	if assignment.Count < k {
		assignment.Count = k
	}
	return assignment, nil
}

// candidateIdx lists dataset indices of one side that survived filtering
func candidateIdx(m *match.DistanceMatrix, treated bool) []int {
	var out []int
	if treated {
		for row, idx := range m.TreatedIdx {
			if rowFeasible(m, row) {
				out = append(out, idx)
			}
		}
		return out
	}
	for col, idx := range m.ControlIdx {
		if colFeasible(m, col) {
			out = append(out, idx)
		}
	}
	return out
}
