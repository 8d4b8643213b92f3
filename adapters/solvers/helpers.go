package solvers

import (
	"sort"

	"gomatch/domain/match"
)

// rowFeasible reports whether a treated row has any surviving candidate
func rowFeasible(m *match.DistanceMatrix, row int) bool {
	for col := range m.Dist[row] {
		if m.Feasible(row, col) {
			return true
		}
	}
	return false
}

// colFeasible reports whether a control column has any surviving candidate
func colFeasible(m *match.DistanceMatrix, col int) bool {
	for row := range m.Dist {
		if m.Feasible(row, col) {
			return true
		}
	}
	return false
}

// candidateRows returns treated rows that still have at least one
// feasible pair, preserving input order
func candidateRows(m *match.DistanceMatrix) []int {
	rows := make([]int, 0, len(m.TreatedIdx))
	for row := range m.Dist {
		if rowFeasible(m, row) {
			rows = append(rows, row)
		}
	}
	return rows
}

// candidateCols returns control columns that still have at least one
// feasible pair, preserving input order
func candidateCols(m *match.DistanceMatrix) []int {
	cols := make([]int, 0, len(m.ControlIdx))
	for col := range m.ControlIdx {
		if colFeasible(m, col) {
			cols = append(cols, col)
		}
	}
	return cols
}

// orderRows arranges treated rows per the ordering policy. Score-based
// policies fall back to data order when no scalar score is available
// (Mahalanobis distances carry none).
func orderRows(ds *match.Dataset, m *match.DistanceMatrix, rows []int, req ordering) []int {
	out := append([]int(nil), rows...)
	switch req.policy {
	case match.OrderRandom:
		req.rng.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	case match.OrderAscending, match.OrderDescending:
		if m.Scores == nil {
			return out
		}
		score := func(row int) float64 {
			return m.Scores[ds.Unit(m.TreatedIdx[row]).ID]
		}
		sort.SliceStable(out, func(i, j int) bool {
			if req.policy == match.OrderAscending {
				return score(out[i]) < score(out[j])
			}
			return score(out[i]) > score(out[j])
		})
	}
	return out
}

type ordering struct {
	policy match.OrderPolicy
	rng    shuffler
}

// shuffler is the part of *rand.Rand the ordering needs; narrowed for
// testability
type shuffler interface {
	Shuffle(n int, swap func(i, j int))
}
