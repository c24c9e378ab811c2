// Package graph provides the immutable undirected interaction graph that the
// centrality passes run over. Nodes are opaque string identifiers mapped to
// dense int32 ids in first-seen order; adjacency is frozen into a compressed
// sparse row layout once building finishes.
package graph

import "sort"

// Edge is an undirected pair of node identifiers.
type Edge struct {
	A string
	B string
}

// Graph is an immutable, symmetric, unweighted adjacency structure.
// Neighbors of node id i are targets[offsets[i]:offsets[i+1]], in the order
// they were first inserted.
type Graph struct {
	names   []string
	index   map[string]int32
	offsets []int
	targets []int32
	edges   int
}

// Build constructs a Graph from a slice of edges.
func Build(edges []Edge) *Graph {
	b := NewBuilder()
	for _, e := range edges {
		b.AddEdge(e.A, e.B)
	}
	return b.Build()
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.names)
}

// EdgeCount returns the number of distinct unordered node pairs, counting a
// self-loop as one pair.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Name returns the identifier of the node with the given id.
func (g *Graph) Name(id int) string {
	return g.names[id]
}

// ID returns the dense id of the named node.
func (g *Graph) ID(name string) (int, bool) {
	id, ok := g.index[name]
	return int(id), ok
}

// Nodes returns all node identifiers in id order. The returned slice is a
// copy and may be modified by the caller.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Neighbors returns the neighbor ids of node id. The slice aliases the
// graph's storage and must not be modified.
func (g *Graph) Neighbors(id int) []int32 {
	return g.targets[g.offsets[id]:g.offsets[id+1]]
}

// Degree returns the neighbor-set cardinality of node id.
func (g *Graph) Degree(id int) int {
	return g.offsets[id+1] - g.offsets[id]
}

// NeighborNames returns the sorted identifiers adjacent to name, or nil if
// the node does not exist.
func (g *Graph) NeighborNames(name string) []string {
	id, ok := g.index[name]
	if !ok {
		return nil
	}
	nbrs := g.Neighbors(int(id))
	out := make([]string, len(nbrs))
	for i, w := range nbrs {
		out[i] = g.names[w]
	}
	sort.Strings(out)
	return out
}

// Builder accumulates edges into an adjacency structure. A Builder is not
// safe for concurrent use.
type Builder struct {
	names []string
	index map[string]int32
	adj   [][]int32
	pairs map[uint64]struct{}
	edges int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[string]int32),
		pairs: make(map[uint64]struct{}),
	}
}

// AddEdge inserts the undirected pair (x, y), creating either node on first
// sight. Duplicate pairs are no-ops. Self-pairs and empty identifiers are
// accepted as given.
func (b *Builder) AddEdge(x, y string) {
	u := b.node(x)
	v := b.node(y)
	if _, seen := b.pairs[pairKey(u, v)]; seen {
		return
	}
	b.pairs[pairKey(u, v)] = struct{}{}
	b.adj[u] = append(b.adj[u], v)
	if u != v {
		b.pairs[pairKey(v, u)] = struct{}{}
		b.adj[v] = append(b.adj[v], u)
	}
	b.edges++
}

// AddRecord converts a raw record into an edge and inserts it. It returns a
// *MalformedEdgeError if the record is not a two-endpoint pair.
func (b *Builder) AddRecord(line int, fields []string) error {
	e, err := EdgeFromRecord(line, fields)
	if err != nil {
		return err
	}
	b.AddEdge(e.A, e.B)
	return nil
}

// Len returns the number of nodes seen so far.
func (b *Builder) Len() int {
	return len(b.names)
}

// Build freezes the accumulated adjacency into an immutable Graph. The
// Builder may keep accepting edges afterwards; later Build calls include
// them without affecting graphs already returned.
func (b *Builder) Build() *Graph {
	n := len(b.names)
	offsets := make([]int, n+1)
	for i, nbrs := range b.adj {
		offsets[i+1] = offsets[i] + len(nbrs)
	}
	targets := make([]int32, offsets[n])
	for i, nbrs := range b.adj {
		copy(targets[offsets[i]:], nbrs)
	}

	names := make([]string, n)
	copy(names, b.names)
	index := make(map[string]int32, n)
	for name, id := range b.index {
		index[name] = id
	}

	return &Graph{
		names:   names,
		index:   index,
		offsets: offsets,
		targets: targets,
		edges:   b.edges,
	}
}

// node returns the id for name, assigning the next id on first sight.
func (b *Builder) node(name string) int32 {
	if id, ok := b.index[name]; ok {
		return id
	}
	id := int32(len(b.names))
	b.index[name] = id
	b.names = append(b.names, name)
	b.adj = append(b.adj, nil)
	return id
}

func pairKey(u, v int32) uint64 {
	return uint64(uint32(u))<<32 | uint64(uint32(v))
}
