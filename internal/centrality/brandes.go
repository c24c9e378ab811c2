package centrality

import "github.com/papapumpkin/hubscan/internal/graph"

// workspace holds the per-source state of Brandes' algorithm, indexed by
// node id. Only the entries touched by the last search are dirty, so
// resetting costs O(reached) rather than O(n).
type workspace struct {
	dist  []int32   // BFS distance from the source, -1 if unreached
	sigma []float64 // number of shortest paths from the source
	delta []float64 // dependency of the source on each node
	order []int32   // visitation order, nondecreasing distance
	q     *queue
}

func newWorkspace(n int) *workspace {
	ws := &workspace{
		dist:  make([]int32, n),
		sigma: make([]float64, n),
		delta: make([]float64, n),
		order: make([]int32, 0, n),
		q:     newQueue(n),
	}
	for i := range ws.dist {
		ws.dist[i] = -1
	}
	return ws
}

// source runs one full Brandes pass from s and adds the dependencies it
// produces into totals.
func (ws *workspace) source(g *graph.Graph, s int32, totals []float64) {
	ws.search(g, s)
	ws.accumulate(g, s, totals)
	ws.reset()
}

// search is the forward phase: a level-by-level BFS from s recording the
// visitation order, distances, and shortest-path counts.
func (ws *workspace) search(g *graph.Graph, s int32) {
	ws.sigma[s] = 1
	ws.dist[s] = 0
	ws.q.reset()
	ws.q.push(s)

	for !ws.q.empty() {
		v := ws.q.pop()
		ws.order = append(ws.order, v)
		dv, sv := ws.dist[v], ws.sigma[v]

		for _, w := range g.Neighbors(int(v)) {
			if ws.dist[w] < 0 {
				ws.dist[w] = dv + 1
				ws.q.push(w)
			}
			if ws.dist[w] == dv+1 {
				ws.sigma[w] += sv
			}
		}
	}
}

// accumulate is the backward phase. Nodes are popped in reverse visitation
// order and each pushes (1+delta[w])/sigma[w] back onto its predecessors.
//
// The predecessor set of w is exactly its neighbors one level closer to the
// source, so it is recovered from dist instead of being stored. Each
// predecessor receives a single term per w, which keeps the floating-point
// result identical to iterating explicit predecessor lists.
func (ws *workspace) accumulate(g *graph.Graph, s int32, totals []float64) {
	for i := len(ws.order) - 1; i >= 0; i-- {
		w := ws.order[i]
		coeff := (1 + ws.delta[w]) / ws.sigma[w]
		prev := ws.dist[w] - 1

		for _, v := range g.Neighbors(int(w)) {
			if ws.dist[v] == prev {
				ws.delta[v] += ws.sigma[v] * coeff
			}
		}
		if w != s {
			totals[w] += ws.delta[w]
		}
	}
}

func (ws *workspace) reset() {
	for _, v := range ws.order {
		ws.dist[v] = -1
		ws.sigma[v] = 0
		ws.delta[v] = 0
	}
	ws.order = ws.order[:0]
}
