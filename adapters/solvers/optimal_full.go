package solvers

import (
	"context"
	"sort"

	"gomatch/domain/match"
	"gomatch/ports"
)

// OptimalFullSolver solves full matching as a minimum-cost flow with
// lower bounds: every candidate unit must land in some stratum, each
// stratum holds one treated with ≥1 controls or one control with ≥1
// treated, and the total matched distance is minimized. The iteration
// budget and tolerance come from the configuration; running out of
// budget surfaces a nonconvergence error that still carries the best
// assignment found.
type OptimalFullSolver struct{}

func (s *OptimalFullSolver) Method() match.Method { return match.MethodOptimalFull }

func (s *OptimalFullSolver) Solve(ctx context.Context, req ports.SolveRequest) (*match.Assignment, error) {
	ds := req.Dataset
	m := req.Matrix

	rows := candidateRows(m)
	cols := candidateCols(m)
	if len(rows) == 0 || len(cols) == 0 {
		return match.NewAssignment(), nil
	}

	// Node layout: [treated rows][control cols][S][K][SS][TT].
	// S→treated carries each treated unit's control multiplicity,
	// control→K each control's treated multiplicity; both have lower
	// bound 1 so no candidate unit is left out. Lower bounds are
	// reduced to plain capacities with excess nodes SS/TT and a
	// circulation arc K→S.
	nT, nC := len(rows), len(cols)
	n := nT + nC + 4
	nodeS := nT + nC
	nodeK := nT + nC + 1
	nodeSS := nT + nC + 2
	nodeTT := nT + nC + 3

	g := newFlowNetwork(n)

	excess := make([]int, n)
	lowerBounded := func(u, v, lower, upper int) {
		g.addEdge(u, v, upper-lower, 0)
		excess[v] += lower
		excess[u] -= lower
	}

	maxMult := nC
	if nT > maxMult {
		maxMult = nT
	}
	for r := range rows {
		lowerBounded(nodeS, r, 1, maxMult)
	}
	for c := range cols {
		lowerBounded(nT+c, nodeK, 1, maxMult)
	}

	arcs := make([]costArc, 0, nT*nC)
	for r, row := range rows {
		for c, col := range cols {
			if !m.Feasible(row, col) {
				continue
			}
			idx := g.addEdge(r, nT+c, 1, m.Dist[row][col])
			arcs = append(arcs, costArc{node: r, edgeIdx: idx, row: row, col: col, dist: m.Dist[row][col]})
		}
	}

	// circulation closure
	g.addEdge(nodeK, nodeS, nT*maxMult, 0)

	target := 0
	for v, e := range excess {
		if e > 0 {
			g.addEdge(nodeSS, v, e, 0)
			target += e
		} else if e < 0 {
			g.addEdge(v, nodeTT, -e, 0)
		}
	}

	outcome := g.minCostFlow(nodeSS, nodeTT, target, req.Config.MaxIterations, req.Config.Tolerance)

	assignment := strataFromArcs(ds, m, arcsWithFlow(g, arcs))
	if outcome.Exhausted || outcome.Flow < target {
		return nil, &match.NonconvergenceError{
			Iterations: outcome.Iterations,
			Gap:        float64(target - outcome.Flow),
			Partial:    assignment,
		}
	}
	return assignment, nil
}

// costArc records one treated→control network arc so flow can be read
// back after solving
type costArc struct {
	node     int
	edgeIdx  int
	row, col int
	dist     float64
}

type matchedArc struct {
	row, col int
	dist     float64
}

func arcsWithFlow(g *flowNetwork, arcs []costArc) []matchedArc {
	out := make([]matchedArc, 0, len(arcs))
	for _, a := range arcs {
		if g.flowOn(a.node, a.edgeIdx) > 0 {
			out = append(out, matchedArc{row: a.row, col: a.col, dist: a.dist})
		}
	}
	return out
}

// strataFromArcs converts matched treated-control edges into strata.
// Connected components of the matched-edge graph become strata after
// chain splitting restores the 1:m / m:1 shape: while a component has
// a multi-degree node on both sides, the costliest edge on a path
// between two such hubs is cut.
func strataFromArcs(ds *match.Dataset, m *match.DistanceMatrix, matched []matchedArc) *match.Assignment {
	adjT := make(map[int][]int) // row → arc indices
	adjC := make(map[int][]int) // col → arc indices
	alive := make([]bool, len(matched))
	for i, a := range matched {
		alive[i] = true
		adjT[a.row] = append(adjT[a.row], i)
		adjC[a.col] = append(adjC[a.col], i)
	}

	degT := func(row int) int {
		d := 0
		for _, i := range adjT[row] {
			if alive[i] {
				d++
			}
		}
		return d
	}
	degC := func(col int) int {
		d := 0
		for _, i := range adjC[col] {
			if alive[i] {
				d++
			}
		}
		return d
	}

	for {
		cut := chainCut(matched, alive, adjT, adjC, degT, degC)
		if cut < 0 {
			break
		}
		alive[cut] = false
	}

	// components over surviving edges
	assignment := match.NewAssignment()
	seen := make([]bool, len(matched))
	stratum := 0

	order := make([]int, 0, len(matched))
	for i := range matched {
		if alive[i] {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := matched[order[i]], matched[order[j]]
		if a.row != b.row {
			return a.row < b.row
		}
		return a.col < b.col
	})

	for _, start := range order {
		if seen[start] {
			continue
		}
		rowsIn := make(map[int]bool)
		colsIn := make(map[int]bool)
		queue := []int{start}
		seen[start] = true
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			a := matched[i]
			rowsIn[a.row] = true
			colsIn[a.col] = true
			for _, j := range adjT[a.row] {
				if alive[j] && !seen[j] {
					seen[j] = true
					queue = append(queue, j)
				}
			}
			for _, j := range adjC[a.col] {
				if alive[j] && !seen[j] {
					seen[j] = true
					queue = append(queue, j)
				}
			}
		}

		for row := range rowsIn {
			assignment.Assign(ds.Unit(m.TreatedIdx[row]).ID, stratum)
		}
		for col := range colsIn {
			assignment.Assign(ds.Unit(m.ControlIdx[col]).ID, stratum)
		}
		stratum++
	}
	return assignment
}

// chainCut finds the costliest alive edge on a path between a
// multi-degree treated hub and a multi-degree control hub in the same
// component, or -1 when every component is already 1:m or m:1
func chainCut(matched []matchedArc, alive []bool, adjT, adjC map[int][]int, degT, degC func(int) int) int {
	for i, a := range matched {
		if !alive[i] || degT(a.row) <= 1 {
			continue
		}
		// BFS from the treated hub over alive edges looking for a
		// control hub; track the costliest edge along each path
		type state struct {
			arc     int
			maxArc  int
			fromRow bool
		}
		visited := make(map[int]bool)
		var queue []state
		for _, j := range adjT[a.row] {
			if alive[j] {
				queue = append(queue, state{arc: j, maxArc: j, fromRow: true})
				visited[j] = true
			}
		}
		for len(queue) > 0 {
			st := queue[0]
			queue = queue[1:]
			e := matched[st.arc]

			if st.fromRow && degC(e.col) > 1 {
				return st.maxArc
			}

			var next []int
			if st.fromRow {
				next = adjC[e.col]
			} else {
				next = adjT[e.row]
			}
			for _, j := range next {
				if !alive[j] || visited[j] {
					continue
				}
				visited[j] = true
				maxArc := st.maxArc
				if matched[j].dist > matched[maxArc].dist {
					maxArc = j
				}
				queue = append(queue, state{arc: j, maxArc: maxArc, fromRow: !st.fromRow})
			}
		}
	}
	return -1
}
