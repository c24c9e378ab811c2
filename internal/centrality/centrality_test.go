package centrality

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/papapumpkin/hubscan/internal/graph"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Test fixtures ---

// buildPath creates the chain 1 - 2 - ... - n.
func buildPath(t *testing.T, n int) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	for i := 1; i < n; i++ {
		b.AddEdge(strconv.Itoa(i), strconv.Itoa(i+1))
	}
	return b.Build()
}

// buildStar creates a center "c" joined to leaves "l0".."l{k-1}".
func buildStar(t *testing.T, k int) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	for i := 0; i < k; i++ {
		b.AddEdge("c", fmt.Sprintf("l%d", i))
	}
	return b.Build()
}

// buildRandom creates a G(n, p) graph plus a few isolated self-loop nodes
// so that disconnected components are exercised.
func buildRandom(t *testing.T, seed uint64, n int, p float64) *graph.Graph {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b := graph.NewBuilder()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				b.AddEdge(fmt.Sprintf("v%d", i), fmt.Sprintf("v%d", j))
			}
		}
	}
	for i := 0; i < n; i++ {
		if rng.Float64() < 0.1 {
			b.AddEdge(fmt.Sprintf("v%d", i), fmt.Sprintf("v%d", i))
		}
	}
	return b.Build()
}

const floatTol = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTol
}

func mustBetweenness(t *testing.T, g *graph.Graph, opts Options) []float64 {
	t.Helper()
	bc, err := Betweenness(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Betweenness: %v", err)
	}
	if len(bc) != g.Len() {
		t.Fatalf("len(Betweenness) = %d, want %d", len(bc), g.Len())
	}
	return bc
}

// bruteForce computes betweenness straight from the definition: for every
// ordered pair (s, t) it counts shortest paths through each v using all-pairs
// BFS distances and path counts.
func bruteForce(g *graph.Graph, normalized bool) []float64 {
	n := g.Len()
	dist := make([][]int, n)
	count := make([][]float64, n)
	for s := 0; s < n; s++ {
		dist[s] = make([]int, n)
		count[s] = make([]float64, n)
		for i := range dist[s] {
			dist[s][i] = -1
		}
		dist[s][s], count[s][s] = 0, 1
		frontier := []int{s}
		for len(frontier) > 0 {
			var next []int
			for _, v := range frontier {
				for _, w32 := range g.Neighbors(v) {
					w := int(w32)
					if dist[s][w] < 0 {
						dist[s][w] = dist[s][v] + 1
						next = append(next, w)
					}
					if dist[s][w] == dist[s][v]+1 {
						count[s][w] += count[s][v]
					}
				}
			}
			frontier = next
		}
	}

	out := make([]float64, n)
	for s := 0; s < n; s++ {
		for t := 0; t < n; t++ {
			if s == t || dist[s][t] < 0 {
				continue
			}
			for v := 0; v < n; v++ {
				if v == s || v == t || dist[s][v] < 0 || dist[v][t] < 0 {
					continue
				}
				if dist[s][v]+dist[v][t] == dist[s][t] {
					out[v] += count[s][v] * count[v][t] / count[s][t]
				}
			}
		}
	}
	if normalized {
		Rescale(out, n)
	}
	return out
}

// --- Tests ---

func TestBetweenness_Empty(t *testing.T) {
	t.Parallel()
	bc := mustBetweenness(t, graph.Build(nil), DefaultOptions())
	if len(bc) != 0 {
		t.Errorf("expected empty result, got %v", bc)
	}
}

func TestBetweenness_Degenerate(t *testing.T) {
	t.Parallel()

	t.Run("single edge", func(t *testing.T) {
		t.Parallel()
		bc := mustBetweenness(t, graph.Build([]graph.Edge{{A: "a", B: "b"}}), DefaultOptions())
		for id, x := range bc {
			if x != 0 {
				t.Errorf("bc[%d] = %f, want 0", id, x)
			}
		}
	})

	t.Run("self loop", func(t *testing.T) {
		t.Parallel()
		bc := mustBetweenness(t, graph.Build([]graph.Edge{{A: "a", B: "a"}}), DefaultOptions())
		if bc[0] != 0 {
			t.Errorf("bc = %v, want [0]", bc)
		}
	})
}

func TestBetweenness_MatchesBruteForce(t *testing.T) {
	t.Parallel()

	for seed := uint64(1); seed <= 40; seed++ {
		n := 3 + int(seed%10)
		p := 0.15 + float64(seed%5)*0.15
		t.Run(fmt.Sprintf("seed%d_n%d", seed, n), func(t *testing.T) {
			t.Parallel()
			g := buildRandom(t, seed, n, p)
			for _, normalized := range []bool{false, true} {
				want := bruteForce(g, normalized)
				got := mustBetweenness(t, g, Options{Normalized: normalized, Workers: 3, Partitions: 4})
				for id := range want {
					if !approxEqual(got[id], want[id]) {
						t.Errorf("normalized=%v: bc[%s] = %.12f, want %.12f",
							normalized, g.Name(id), got[id], want[id])
					}
				}
			}
		})
	}
}

func TestBetweenness_PathClosedForm(t *testing.T) {
	t.Parallel()

	for _, n := range []int{5, 6, 7} {
		t.Run(fmt.Sprintf("n%d", n), func(t *testing.T) {
			t.Parallel()
			g := buildPath(t, n)
			bc := mustBetweenness(t, g, Options{Normalized: false})

			// Node i separates i-1 nodes on one side from n-i on the other;
			// both directions of every such pair are counted.
			for i := 1; i <= n; i++ {
				id, _ := g.ID(strconv.Itoa(i))
				want := float64(2 * (i - 1) * (n - i))
				if bc[id] != want {
					t.Errorf("raw bc[%d] = %v, want exactly %v", i, bc[id], want)
				}
			}
		})
	}
}

func TestBetweenness_Star(t *testing.T) {
	t.Parallel()

	for _, k := range []int{2, 3, 5, 10, 49} {
		t.Run(fmt.Sprintf("k%d", k), func(t *testing.T) {
			t.Parallel()
			g := buildStar(t, k)
			bc := mustBetweenness(t, g, DefaultOptions())

			center, _ := g.ID("c")
			if !approxEqual(bc[center], 1) {
				t.Errorf("center bc = %.15f, want 1", bc[center])
			}
			for id, x := range bc {
				if id != center && x != 0 {
					t.Errorf("leaf %s bc = %f, want 0", g.Name(id), x)
				}
			}
		})
	}
}

func TestBetweenness_IsolatedNodesScoreZero(t *testing.T) {
	t.Parallel()
	g := graph.Build([]graph.Edge{
		{A: "a", B: "b"}, {A: "b", B: "c"},
		{A: "x", B: "x"}, {A: "y", B: "y"},
	})
	bc := mustBetweenness(t, g, DefaultOptions())
	for _, name := range []string{"x", "y"} {
		id, _ := g.ID(name)
		if bc[id] != 0 {
			t.Errorf("bc[%s] = %f, want 0", name, bc[id])
		}
	}
	b, _ := g.ID("b")
	// n = 5: pair (a, c) in both directions, scaled by 1/(4*3).
	if want := 2.0 / 12.0; !approxEqual(bc[b], want) {
		t.Errorf("bc[b] = %f, want %f", bc[b], want)
	}
}

func TestBetweenness_Deterministic(t *testing.T) {
	t.Parallel()
	g := buildRandom(t, 99, 300, 0.02)

	base := mustBetweenness(t, g, Options{Normalized: true, Workers: 1, Partitions: 16})
	for _, workers := range []int{2, 4, 16} {
		got := mustBetweenness(t, g, Options{Normalized: true, Workers: workers, Partitions: 16})
		for id := range base {
			if got[id] != base[id] {
				t.Fatalf("workers=%d: bc[%d] = %v, want bit-identical %v", workers, id, got[id], base[id])
			}
		}
	}
}

func TestBetweenness_SinglePartitionIsSequentialSum(t *testing.T) {
	t.Parallel()
	g := buildRandom(t, 7, 120, 0.05)

	want := make([]float64, g.Len())
	ws := newWorkspace(g.Len())
	for s := 0; s < g.Len(); s++ {
		ws.source(g, int32(s), want)
	}
	Rescale(want, g.Len())

	got := mustBetweenness(t, g, Options{Normalized: true, Workers: 8, Partitions: 1})
	for id := range want {
		if got[id] != want[id] {
			t.Fatalf("bc[%d] = %v, want bit-identical %v", id, got[id], want[id])
		}
	}
}

func TestBetweenness_RecordedPartitionsReproduce(t *testing.T) {
	t.Parallel()
	g := buildRandom(t, 11, 400, 0.02)

	first := mustBetweenness(t, g, DefaultOptions())
	k := EffectivePartitions(g.Len(), 0)
	if k != DefaultPartitions {
		t.Fatalf("EffectivePartitions = %d, want %d", k, DefaultPartitions)
	}
	again := mustBetweenness(t, g, Options{Normalized: true, Workers: 1, Partitions: k})
	for id := range first {
		if again[id] != first[id] {
			t.Fatalf("bc[%d] = %v, want bit-identical %v", id, again[id], first[id])
		}
	}
}

func TestEffectivePartitions_EmptyGraph(t *testing.T) {
	t.Parallel()
	if got := EffectivePartitions(0, 0); got != 0 {
		t.Errorf("EffectivePartitions(0, 0) = %d, want 0", got)
	}
}

func TestBetweenness_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Betweenness(ctx, buildPath(t, 50), DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestBetweenness_Progress(t *testing.T) {
	t.Parallel()
	g := buildRandom(t, 3, 250, 0.02)

	var (
		mu    sync.Mutex
		calls int
		last  [2]int
	)
	opts := DefaultOptions()
	opts.Workers = 4
	opts.Progress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		last = [2]int{done, total}
	}
	mustBetweenness(t, g, opts)

	if calls < 2 {
		t.Errorf("progress called %d times, want at least 2", calls)
	}
	if last != [2]int{g.Len(), g.Len()} {
		t.Errorf("final progress = %v, want [%d %d]", last, g.Len(), g.Len())
	}
}

func TestPartitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n, k int
		want int
	}{
		{10, 3, 3},
		{10, 0, 10},
		{100, 0, DefaultPartitions},
		{5, 8, 5},
		{7, 1, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n%d_k%d", tt.n, tt.k), func(t *testing.T) {
			t.Parallel()
			parts := partitions(tt.n, tt.k)
			if len(parts) != tt.want {
				t.Fatalf("len = %d, want %d", len(parts), tt.want)
			}
			if got := EffectivePartitions(tt.n, tt.k); got != tt.want {
				t.Errorf("EffectivePartitions = %d, want %d", got, tt.want)
			}
			next := 0
			for _, p := range parts {
				if p.lo != next || p.hi <= p.lo {
					t.Fatalf("bad span %+v after %d", p, next)
				}
				next = p.hi
			}
			if next != tt.n {
				t.Errorf("spans cover [0, %d), want [0, %d)", next, tt.n)
			}
		})
	}
}

func TestQueue_FIFO(t *testing.T) {
	t.Parallel()
	q := newQueue(4)
	for _, v := range []int32{3, 1, 2} {
		q.push(v)
	}
	for _, want := range []int32{3, 1, 2} {
		if q.empty() {
			t.Fatal("queue empty early")
		}
		if got := q.pop(); got != want {
			t.Errorf("pop() = %d, want %d", got, want)
		}
	}
	if !q.empty() {
		t.Error("queue not empty after draining")
	}
	q.reset()
	q.push(9)
	if got := q.pop(); got != 9 {
		t.Errorf("pop() after reset = %d, want 9", got)
	}
}
