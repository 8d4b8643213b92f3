package solvers

import (
	"context"
	"sort"

	"gomatch/domain/match"
	"gomatch/ports"
)

// NearestSolver is greedy nearest-neighbor matching: treated units are
// visited in the configured order and each takes its closest
// still-available controls. A poor early match is never revisited.
type NearestSolver struct{}

func (s *NearestSolver) Method() match.Method { return match.MethodNearest }

// Solve assigns up to ratio controls per treated unit. Ties on distance
// break toward the lexicographically smallest control unit ID, making
// the pass deterministic for a fixed ordering.
func (s *NearestSolver) Solve(ctx context.Context, req ports.SolveRequest) (*match.Assignment, error) {
	ds := req.Dataset
	m := req.Matrix

	rows := orderRows(ds, m, candidateRows(m), ordering{policy: req.Config.Order, rng: req.RNG})

	used := make([]bool, len(m.ControlIdx))
	assignment := match.NewAssignment()
	stratum := 0

	type candidate struct {
		col  int
		dist float64
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cands := make([]candidate, 0, len(m.ControlIdx))
		for col := range m.Dist[row] {
			if !m.Feasible(row, col) {
				continue
			}
			if used[col] && !req.Config.Replace {
				continue
			}
			cands = append(cands, candidate{col: col, dist: m.Dist[row][col]})
		}
		if len(cands) == 0 {
			continue // unassigned, recorded downstream; never an error
		}

		sort.Slice(cands, func(i, j int) bool {
			if cands[i].dist != cands[j].dist {
				return cands[i].dist < cands[j].dist
			}
			return ds.Unit(m.ControlIdx[cands[i].col]).ID < ds.Unit(m.ControlIdx[cands[j].col]).ID
		})

		take := req.Config.Ratio
		if take > len(cands) {
			take = len(cands) // short ratio fills as many as available
		}

		assignment.Assign(ds.Unit(m.TreatedIdx[row]).ID, stratum)
		for _, c := range cands[:take] {
			assignment.Assign(ds.Unit(m.ControlIdx[c.col]).ID, stratum)
			if !req.Config.Replace {
				used[c.col] = true
			}
		}
		stratum++
	}

	return assignment, nil
}
