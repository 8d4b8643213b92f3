package match

import (
	"math"

	"gomatch/domain/core"
)

// DistanceMatrix holds pairwise treated-to-control distances. Direction
// is fixed (treated rows, control columns) so no symmetry is implied.
// +Inf marks an infeasible pair; the constraint filter writes them and
// solvers skip them.
type DistanceMatrix struct {
	TreatedIdx []int       `json:"treated_idx"` // dataset indices, input order
	ControlIdx []int       `json:"control_idx"`
	Dist       [][]float64 `json:"dist"`

	// Scores carries per-unit propensity scores when the measure is
	// score-based; empty for Mahalanobis distances.
	Scores map[core.UnitID]float64 `json:"scores,omitempty"`
}

// NewDistanceMatrix allocates a zeroed matrix over the dataset's groups
func NewDistanceMatrix(ds *Dataset) *DistanceMatrix {
	m := &DistanceMatrix{
		TreatedIdx: ds.Treated(),
		ControlIdx: ds.Control(),
		Dist:       make([][]float64, len(ds.Treated())),
	}
	for i := range m.Dist {
		m.Dist[i] = make([]float64, len(m.ControlIdx))
	}
	return m
}

// Feasible reports whether the (row, col) pair survives filtering
func (m *DistanceMatrix) Feasible(row, col int) bool {
	return !math.IsInf(m.Dist[row][col], 1)
}

// Exclude marks the (row, col) pair infeasible
func (m *DistanceMatrix) Exclude(row, col int) {
	m.Dist[row][col] = math.Inf(1)
}

// ExcludeRow marks every pair for one treated unit infeasible
func (m *DistanceMatrix) ExcludeRow(row int) {
	for col := range m.Dist[row] {
		m.Dist[row][col] = math.Inf(1)
	}
}

// ExcludeCol marks every pair for one control unit infeasible
func (m *DistanceMatrix) ExcludeCol(col int) {
	for row := range m.Dist {
		m.Dist[row][col] = math.Inf(1)
	}
}

// FeasibleCount returns the number of surviving pairs
func (m *DistanceMatrix) FeasibleCount() int {
	n := 0
	for row := range m.Dist {
		for col := range m.Dist[row] {
			if m.Feasible(row, col) {
				n++
			}
		}
	}
	return n
}

// Clone deep-copies the matrix so filtering never mutates the original
func (m *DistanceMatrix) Clone() *DistanceMatrix {
	out := &DistanceMatrix{
		TreatedIdx: append([]int(nil), m.TreatedIdx...),
		ControlIdx: append([]int(nil), m.ControlIdx...),
		Dist:       make([][]float64, len(m.Dist)),
	}
	for i := range m.Dist {
		out.Dist[i] = append([]float64(nil), m.Dist[i]...)
	}
	if m.Scores != nil {
		out.Scores = make(map[core.UnitID]float64, len(m.Scores))
		for k, v := range m.Scores {
			out.Scores[k] = v
		}
	}
	return out
}

// TotalAssigned sums distances over an assignment's matched pairs.
// Used by optimality checks and run metadata.
func (m *DistanceMatrix) TotalAssigned(ds *Dataset, a *Assignment) float64 {
	colOf := make(map[int]int, len(m.ControlIdx))
	for c, idx := range m.ControlIdx {
		colOf[idx] = c
	}

	total := 0.0
	for r, tIdx := range m.TreatedIdx {
		tStrata := a.StrataOf(ds.Unit(tIdx).ID)
		if len(tStrata) == 0 {
			continue
		}
		inStratum := make(map[int]bool, len(tStrata))
		for _, s := range tStrata {
			inStratum[s] = true
		}
		for _, cIdx := range m.ControlIdx {
			for _, s := range a.StrataOf(ds.Unit(cIdx).ID) {
				if inStratum[s] {
					total += m.Dist[r][colOf[cIdx]]
					break
				}
			}
		}
	}
	return total
}
