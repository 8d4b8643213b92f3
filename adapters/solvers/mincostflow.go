package solvers

import (
	"container/heap"
	"math"
)

// flowEdge is one directed arc in the residual network. rev indexes the
// paired reverse arc inside edges[to].
type flowEdge struct {
	to   int
	rev  int
	cap  int
	cost float64
}

// flowNetwork is a residual network for successive-shortest-path
// min-cost flow with node potentials. Costs must be non-negative on
// construction; reduced costs stay non-negative as potentials update,
// so Dijkstra drives every augmentation.
type flowNetwork struct {
	n     int
	edges [][]flowEdge
}

func newFlowNetwork(n int) *flowNetwork {
	return &flowNetwork{n: n, edges: make([][]flowEdge, n)}
}

// addEdge inserts u→v with the given capacity and cost plus its
// zero-capacity reverse arc. Returns the arc's index within edges[u].
func (g *flowNetwork) addEdge(u, v, capacity int, cost float64) int {
	idx := len(g.edges[u])
	g.edges[u] = append(g.edges[u], flowEdge{to: v, rev: len(g.edges[v]), cap: capacity, cost: cost})
	g.edges[v] = append(g.edges[v], flowEdge{to: u, rev: idx, cap: 0, cost: -cost})
	return idx
}

// flowOn reports how much flow crossed the forward arc at edges[u][idx]
func (g *flowNetwork) flowOn(u, idx int) int {
	e := g.edges[u][idx]
	return g.edges[e.to][e.rev].cap
}

type pqItem struct {
	node int
	dist float64
}

type pathQueue []pqItem

func (q pathQueue) Len() int            { return len(q) }
func (q pathQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q pathQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pathQueue) Push(x interface{}) { *q = append(*q, x.(pqItem)) }
func (q *pathQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// flowOutcome reports how a min-cost flow run ended
type flowOutcome struct {
	Flow       int
	Cost       float64
	Iterations int
	Exhausted  bool // iteration budget ran out before target flow
}

// minCostFlow pushes up to target units of flow from s to t, cheapest
// augmenting path first. Each augmentation counts against maxIter; tol
// is the numerical slack for cost comparisons inside Dijkstra.
func (g *flowNetwork) minCostFlow(s, t, target, maxIter int, tol float64) flowOutcome {
	potential := make([]float64, g.n)
	dist := make([]float64, g.n)
	prevNode := make([]int, g.n)
	prevEdge := make([]int, g.n)

	out := flowOutcome{}
	for out.Flow < target {
		if out.Iterations >= maxIter {
			out.Exhausted = true
			return out
		}
		out.Iterations++

		for i := range dist {
			dist[i] = math.Inf(1)
			prevNode[i] = -1
		}
		dist[s] = 0

		pq := &pathQueue{{node: s, dist: 0}}
		for pq.Len() > 0 {
			item := heap.Pop(pq).(pqItem)
			if item.dist > dist[item.node]+tol {
				continue
			}
			u := item.node
			for idx, e := range g.edges[u] {
				if e.cap <= 0 {
					continue
				}
				reduced := e.cost + potential[u] - potential[e.to]
				if reduced < 0 {
					// numerical drift only; clamp
					reduced = 0
				}
				if d := dist[u] + reduced; d+tol < dist[e.to] {
					dist[e.to] = d
					prevNode[e.to] = u
					prevEdge[e.to] = idx
					heap.Push(pq, pqItem{node: e.to, dist: d})
				}
			}
		}

		if math.IsInf(dist[t], 1) {
			// no augmenting path left
			return out
		}

		for i := range potential {
			if !math.IsInf(dist[i], 1) {
				potential[i] += dist[i]
			}
		}

		// bottleneck along the path
		push := math.MaxInt32
		for v := t; v != s; v = prevNode[v] {
			e := g.edges[prevNode[v]][prevEdge[v]]
			if e.cap < push {
				push = e.cap
			}
		}
		if remaining := target - out.Flow; push > remaining {
			push = remaining
		}

		for v := t; v != s; v = prevNode[v] {
			u := prevNode[v]
			g.edges[u][prevEdge[v]].cap -= push
			rev := g.edges[u][prevEdge[v]].rev
			g.edges[v][rev].cap += push
			out.Cost += float64(push) * g.edges[u][prevEdge[v]].cost
		}
		out.Flow += push
	}
	return out
}
