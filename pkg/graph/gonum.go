package graph

import (
	"cmp"
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// =============================================================================
// gonum Conversion
// =============================================================================

// Gonum converts g to a gonum weighted graph. Directed graphs become a
// *simple.WeightedDirectedGraph and undirected graphs a
// *simple.WeightedUndirectedGraph. Self loops are dropped because gonum's
// simple graphs do not support them. Node ids equal row ids.
func (g *Graph) Gonum() gonum.Weighted {
	if !g.directed {
		return g.GonumUndirected()
	}
	return g.GonumDirected()
}

// GonumDirected converts g to a *simple.WeightedDirectedGraph. Undirected
// edges become two opposite arcs.
func (g *Graph) GonumDirected() *simple.WeightedDirectedGraph {
	dg := simple.NewWeightedDirectedGraph(0, 0)
	for i := range g.n {
		dg.AddNode(simple.Node(i))
	}
	for _, e := range g.edges {
		if e.Source == e.Target {
			continue
		}
		dg.SetWeightedEdge(dg.NewWeightedEdge(simple.Node(e.Source), simple.Node(e.Target), e.Weight))
		if !g.directed {
			dg.SetWeightedEdge(dg.NewWeightedEdge(simple.Node(e.Target), simple.Node(e.Source), e.Weight))
		}
	}
	return dg
}

// GonumUndirected converts g to a *simple.WeightedUndirectedGraph, first
// symmetrising directed graphs with [Graph.Undirected].
func (g *Graph) GonumUndirected() *simple.WeightedUndirectedGraph {
	u := g.Undirected()
	ug := simple.NewWeightedUndirectedGraph(0, 0)
	for i := range u.n {
		ug.AddNode(simple.Node(i))
	}
	for _, e := range u.edges {
		if e.Source == e.Target {
			continue
		}
		ug.SetWeightedEdge(ug.NewWeightedEdge(simple.Node(e.Source), simple.Node(e.Target), e.Weight))
	}
	return ug
}

// =============================================================================
// Topology
// =============================================================================

// Components returns the weakly connected components of g. Each component
// is sorted ascending; components are ordered by descending size, then by
// smallest member.
func (g *Graph) Components() [][]int {
	raw := topo.ConnectedComponents(g.GonumUndirected())
	comps := make([][]int, len(raw))
	for i, c := range raw {
		ids := make([]int, len(c))
		for j, n := range c {
			ids[j] = int(n.ID())
		}
		slices.Sort(ids)
		comps[i] = ids
	}
	slices.SortFunc(comps, func(a, b []int) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a[0], b[0])
	})
	return comps
}

// LargestComponent returns the members of the largest weakly connected
// component, or nil for an empty graph.
func (g *Graph) LargestComponent() []int {
	comps := g.Components()
	if len(comps) == 0 {
		return nil
	}
	return comps[0]
}

// HopDistances returns the all-pairs breadth-first hop count over the
// undirected view of g, capped at maxDist. Unreachable pairs get maxDist.
func (g *Graph) HopDistances(maxDist int) [][]float64 {
	ug := g.GonumUndirected()
	dist := make([][]float64, g.n)
	for i := range g.n {
		row := make([]float64, g.n)
		for j := range row {
			if j != i {
				row[j] = float64(maxDist)
			}
		}
		var bf traverse.BreadthFirst
		bf.Walk(ug, simple.Node(i), func(n gonum.Node, d int) bool {
			if d >= maxDist {
				return true
			}
			row[n.ID()] = float64(d)
			return false
		})
		dist[i] = row
	}
	return dist
}
