package graph

// Degrees returns the degree of every node, indexed by node id.
func Degrees(g *Graph) []int {
	out := make([]int, g.Len())
	for id := range out {
		out[id] = g.Degree(id)
	}
	return out
}

// DegreeMap returns node identifier → degree.
func DegreeMap(g *Graph) map[string]int {
	out := make(map[string]int, g.Len())
	for id, name := range g.names {
		out[name] = g.Degree(id)
	}
	return out
}
