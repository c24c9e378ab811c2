package graph

import "sort"

// unionFind is a disjoint-set forest over dense node ids with path
// compression and union by rank.
type unionFind struct {
	parent []int32
	rank   []uint8
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int32, n),
		rank:   make([]uint8, n),
	}
	for i := range uf.parent {
		uf.parent[i] = int32(i)
	}
	return uf
}

// find returns the root of x's set, compressing the path on the way up.
func (uf *unionFind) find(x int32) int32 {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

func (uf *unionFind) union(x, y int32) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	switch {
	case uf.rank[rx] < uf.rank[ry]:
		uf.parent[rx] = ry
	case uf.rank[rx] > uf.rank[ry]:
		uf.parent[ry] = rx
	default:
		uf.parent[ry] = rx
		uf.rank[rx]++
	}
}

// Components returns the size of every connected component, largest first.
// Isolated nodes form components of size one.
func Components(g *Graph) []int {
	n := g.Len()
	if n == 0 {
		return nil
	}
	uf := newUnionFind(n)
	for u := 0; u < n; u++ {
		for _, v := range g.Neighbors(u) {
			uf.union(int32(u), v)
		}
	}

	sizes := make(map[int32]int)
	for u := 0; u < n; u++ {
		sizes[uf.find(int32(u))]++
	}
	out := make([]int, 0, len(sizes))
	for _, size := range sizes {
		out = append(out, size)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
