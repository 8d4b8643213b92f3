package solvers

import (
	"context"

	"gomatch/domain/match"
	"gomatch/ports"
)

// OptimalPairSolver solves pair matching as a minimum-cost bipartite
// assignment: each treated unit receives up to ratio distinct controls
// and the total matched distance is minimized globally, so its total
// never exceeds the greedy pass on the same matrix.
type OptimalPairSolver struct{}

func (s *OptimalPairSolver) Method() match.Method { return match.MethodOptimalPair }

func (s *OptimalPairSolver) Solve(ctx context.Context, req ports.SolveRequest) (*match.Assignment, error) {
	ds := req.Dataset
	m := req.Matrix

	rows := candidateRows(m)
	cols := candidateCols(m)
	if len(rows) == 0 || len(cols) == 0 {
		return match.NewAssignment(), nil
	}

	// Network: source → treated (cap ratio) → control (cap 1) → sink.
	// Max-cardinality is implied: augmentation continues until no path
	// remains, and successive shortest paths keep the cost minimal for
	// that cardinality.
	n := len(rows) + len(cols) + 2
	source := n - 2
	sink := n - 1
	g := newFlowNetwork(n)

	for r := range rows {
		g.addEdge(source, r, req.Config.Ratio, 0)
	}
	for c := range cols {
		g.addEdge(len(rows)+c, sink, 1, 0)
	}

	type arc struct {
		treatedNode int
		edgeIdx     int
		row, col    int
	}
	arcs := make([]arc, 0, len(rows)*len(cols))
	for r, row := range rows {
		for c, col := range cols {
			if !m.Feasible(row, col) {
				continue
			}
			idx := g.addEdge(r, len(rows)+c, 1, m.Dist[row][col])
			arcs = append(arcs, arc{treatedNode: r, edgeIdx: idx, row: row, col: col})
		}
	}

	target := len(rows) * req.Config.Ratio
	budget := req.Config.MaxIterations
	if budget < target {
		budget = target + 1
	}
	g.minCostFlow(source, sink, target, budget, req.Config.Tolerance)

	// One stratum per treated unit holding its matched controls
	assignment := match.NewAssignment()
	stratumOf := make(map[int]int, len(rows))
	for _, a := range arcs {
		if g.flowOn(a.treatedNode, a.edgeIdx) == 0 {
			continue
		}
		stratum, ok := stratumOf[a.row]
		if !ok {
			stratum = len(stratumOf)
			stratumOf[a.row] = stratum
			assignment.Assign(ds.Unit(m.TreatedIdx[a.row]).ID, stratum)
		}
		assignment.Assign(ds.Unit(m.ControlIdx[a.col]).ID, stratum)
	}

	return assignment, nil
}
