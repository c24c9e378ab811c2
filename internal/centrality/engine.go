// Package centrality computes exact unweighted betweenness centrality with
// Brandes' algorithm.
//
// Sources are split into a fixed number of contiguous partitions. Each
// partition is processed in source-id order into private partial totals,
// and the partials are summed in partition order once every partition is
// done. The result is therefore a pure function of the graph and the
// partition count: worker count and goroutine scheduling never change a
// single bit of the output.
package centrality

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/hubscan/internal/graph"
)

// DefaultPartitions is the number of source partitions used when
// Options.Partitions is zero.
const DefaultPartitions = 32

// Options configures a betweenness computation.
type Options struct {
	// Workers bounds the number of partitions processed concurrently.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Partitions is the number of contiguous source ranges whose partial
	// totals are reduced at the end. Zero means DefaultPartitions. One
	// reproduces the plain sequential sum over sources.
	Partitions int

	// Normalized rescales totals by 1/((n-1)(n-2)) when n > 2.
	Normalized bool

	// Progress, if set, is called with the number of completed sources
	// roughly every 1% of the run and once at the end. Calls are serialized
	// but may come from different goroutines, so done is not guaranteed to
	// increase monotonically until the final call.
	Progress func(done, total int)
}

// DefaultOptions returns normalized output with default parallelism.
func DefaultOptions() Options {
	return Options{Normalized: true}
}

// Betweenness returns the betweenness centrality of every node, indexed by
// node id. An empty graph yields an empty slice. The only error returned is
// the context's, if it is cancelled before all sources are processed.
func Betweenness(ctx context.Context, g *graph.Graph, opts Options) ([]float64, error) {
	n := g.Len()
	if n == 0 {
		return []float64{}, nil
	}

	parts := partitions(n, opts.Partitions)
	partials := make([][]float64, len(parts))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	tracker := newProgress(n, opts.Progress)
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)

	for i, p := range parts {
		grp.Go(func() error {
			totals := make([]float64, n)
			ws := newWorkspace(n)
			for s := p.lo; s < p.hi; s++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				ws.source(g, int32(s), totals)
				tracker.step()
			}
			partials[i] = totals
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, fmt.Errorf("centrality: betweenness: %w", err)
	}
	tracker.finish()

	out := partials[0]
	for _, part := range partials[1:] {
		for v, x := range part {
			out[v] += x
		}
	}
	if opts.Normalized {
		Rescale(out, n)
	}
	return out, nil
}

// Rescale multiplies every score by 1/((n-1)(n-2)). For n <= 2 no
// normalization is meaningful and scores are left untouched.
func Rescale(scores []float64, n int) {
	if n <= 2 {
		return
	}
	scale := 1 / (float64(n-1) * float64(n-2))
	for i := range scores {
		scores[i] *= scale
	}
}

// EffectivePartitions returns how many source partitions Betweenness uses
// for a graph of n nodes when asked for k. Runs with equal values sum their
// per-source totals in the same order and produce bit-identical scores.
func EffectivePartitions(n, k int) int {
	if n == 0 {
		return 0
	}
	return len(partitions(n, k))
}

// span is a half-open range of source ids.
type span struct{ lo, hi int }

// partitions splits [0, n) into at most k contiguous, nearly equal spans.
func partitions(n, k int) []span {
	if k <= 0 {
		k = DefaultPartitions
	}
	if k > n {
		k = n
	}
	out := make([]span, k)
	size, extra := n/k, n%k
	lo := 0
	for i := range out {
		hi := lo + size
		if i < extra {
			hi++
		}
		out[i] = span{lo, hi}
		lo = hi
	}
	return out
}

// progress throttles Options.Progress callbacks to about one per percent.
type progress struct {
	total int
	every int64
	done  atomic.Int64
	fn    func(done, total int)
	mu    sync.Mutex
}

func newProgress(total int, fn func(done, total int)) *progress {
	every := int64(total / 100)
	if every < 1 {
		every = 1
	}
	return &progress{total: total, every: every, fn: fn}
}

func (p *progress) step() {
	d := p.done.Add(1)
	if p.fn == nil || d%p.every != 0 || d == int64(p.total) {
		return
	}
	p.mu.Lock()
	p.fn(int(d), p.total)
	p.mu.Unlock()
}

func (p *progress) finish() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	p.fn(p.total, p.total)
	p.mu.Unlock()
}
