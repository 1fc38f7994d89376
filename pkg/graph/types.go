package graph

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrNodeOutOfRange is returned by [New] when an edge references a node
	// id outside 0..n-1.
	ErrNodeOutOfRange = errors.New("edge endpoint out of range")

	// ErrInvalidWeight is returned by [New] for NaN or infinite weights.
	ErrInvalidWeight = errors.New("edge weight must be finite")
)

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed, weighted connection between two row ids.
type Edge struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Weight float64 `json:"weight"`
}

// Neighbor is an adjacent node together with the connecting weight.
type Neighbor struct {
	ID     int
	Weight float64
}

// compareEdges orders edges by (source, target).
func compareEdges(a, b Edge) int {
	if c := cmp.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.Target, b.Target)
}

// SortEdges sorts edges by (source, target) in place.
func SortEdges(edges []Edge) {
	slices.SortFunc(edges, compareEdges)
}

// =============================================================================
// Graph
// =============================================================================

// Graph is an adjacency structure over nodes 0..Len()-1.
//
// Parallel edges are merged by summing their weights. For undirected graphs
// an edge (u, v) is stored once with u <= v and appears in both adjacency
// lists. Self loops are kept.
//
// The zero value is an empty graph.
type Graph struct {
	n        int
	directed bool
	edges    []Edge
	out      [][]Neighbor
	in       [][]Neighbor
}

// New builds a graph with n nodes from an edge list.
func New(n int, edges []Edge, directed bool) (*Graph, error) {
	merged := make(map[[2]int]float64, len(edges))
	for _, e := range edges {
		if e.Source < 0 || e.Source >= n || e.Target < 0 || e.Target >= n {
			return nil, fmt.Errorf("%w: %d→%d with %d nodes", ErrNodeOutOfRange, e.Source, e.Target, n)
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return nil, fmt.Errorf("%w: %d→%d", ErrInvalidWeight, e.Source, e.Target)
		}
		s, t := e.Source, e.Target
		if !directed && s > t {
			s, t = t, s
		}
		merged[[2]int{s, t}] += e.Weight
	}

	g := &Graph{
		n:        n,
		directed: directed,
		edges:    make([]Edge, 0, len(merged)),
		out:      make([][]Neighbor, n),
		in:       make([][]Neighbor, n),
	}
	for k, w := range merged {
		g.edges = append(g.edges, Edge{Source: k[0], Target: k[1], Weight: w})
	}
	SortEdges(g.edges)

	for _, e := range g.edges {
		g.out[e.Source] = append(g.out[e.Source], Neighbor{ID: e.Target, Weight: e.Weight})
		g.in[e.Target] = append(g.in[e.Target], Neighbor{ID: e.Source, Weight: e.Weight})
		if !directed && e.Source != e.Target {
			g.out[e.Target] = append(g.out[e.Target], Neighbor{ID: e.Source, Weight: e.Weight})
			g.in[e.Source] = append(g.in[e.Source], Neighbor{ID: e.Target, Weight: e.Weight})
		}
	}
	for i := range n {
		sortNeighbors(g.out[i])
		sortNeighbors(g.in[i])
	}
	return g, nil
}

// MustNew is like [New] but panics on error. Intended for tests and
// internally generated edge lists.
func MustNew(n int, edges []Edge, directed bool) *Graph {
	g, err := New(n, edges, directed)
	if err != nil {
		panic(err)
	}
	return g
}

func sortNeighbors(ns []Neighbor) {
	slices.SortFunc(ns, func(a, b Neighbor) int { return cmp.Compare(a.ID, b.ID) })
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return g.n }

// Directed reports whether edge direction is significant.
func (g *Graph) Directed() bool { return g.directed }

// Edges returns the merged edge list sorted by (source, target).
// The returned slice must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Out returns the successors of node i. For undirected graphs this is the
// full neighbourhood.
func (g *Graph) Out(i int) []Neighbor { return g.out[i] }

// In returns the predecessors of node i. For undirected graphs this is the
// full neighbourhood.
func (g *Graph) In(i int) []Neighbor { return g.in[i] }

// OutDegree returns the number of outgoing edges of node i.
func (g *Graph) OutDegree(i int) int { return len(g.out[i]) }

// InDegree returns the number of incoming edges of node i.
func (g *Graph) InDegree(i int) int { return len(g.in[i]) }

// Degree returns the number of incident edges of node i. For directed graphs
// this is in-degree plus out-degree.
func (g *Graph) Degree(i int) int {
	if g.directed {
		return len(g.out[i]) + len(g.in[i])
	}
	return len(g.out[i])
}

// Neighbors returns the sorted, de-duplicated ids adjacent to i in either
// direction, excluding i itself.
func (g *Graph) Neighbors(i int) []int {
	ids := make([]int, 0, len(g.out[i])+len(g.in[i]))
	for _, nb := range g.out[i] {
		if nb.ID != i {
			ids = append(ids, nb.ID)
		}
	}
	if g.directed {
		for _, nb := range g.in[i] {
			if nb.ID != i {
				ids = append(ids, nb.ID)
			}
		}
		slices.Sort(ids)
		ids = slices.Compact(ids)
	}
	return ids
}

// Weight returns the weight of edge u→v and whether it exists.
func (g *Graph) Weight(u, v int) (float64, bool) {
	ns := g.out[u]
	i, ok := slices.BinarySearchFunc(ns, v, func(nb Neighbor, id int) int { return cmp.Compare(nb.ID, id) })
	if !ok {
		return 0, false
	}
	return ns[i].Weight, true
}

// TotalWeight returns the sum of all edge weights.
func (g *Graph) TotalWeight() float64 {
	var m float64
	for _, e := range g.edges {
		m += e.Weight
	}
	return m
}

// Undirected returns an undirected copy. Reciprocal directed edges collapse
// to one edge carrying the larger weight. An undirected graph is returned
// as is.
func (g *Graph) Undirected() *Graph {
	if !g.directed {
		return g
	}
	best := make(map[[2]int]float64, len(g.edges))
	for _, e := range g.edges {
		s, t := min(e.Source, e.Target), max(e.Source, e.Target)
		k := [2]int{s, t}
		if w, ok := best[k]; !ok || e.Weight > w {
			best[k] = e.Weight
		}
	}
	edges := make([]Edge, 0, len(best))
	for k, w := range best {
		edges = append(edges, Edge{Source: k[0], Target: k[1], Weight: w})
	}
	return MustNew(g.n, edges, false)
}

// Subgraph returns the subgraph induced by nodes, relabelled 0..len(nodes)-1
// in the given order. The second return value maps local ids back to ids in g.
func (g *Graph) Subgraph(nodes []int) (*Graph, []int) {
	local := make(map[int]int, len(nodes))
	for i, id := range nodes {
		local[id] = i
	}
	var edges []Edge
	for _, e := range g.edges {
		s, okS := local[e.Source]
		t, okT := local[e.Target]
		if okS && okT {
			edges = append(edges, Edge{Source: s, Target: t, Weight: e.Weight})
		}
	}
	return MustNew(len(nodes), edges, g.directed), slices.Clone(nodes)
}

// WithEdges returns a copy of g with extra edges added.
func (g *Graph) WithEdges(extra ...Edge) (*Graph, error) {
	edges := make([]Edge, 0, len(g.edges)+len(extra))
	edges = append(edges, g.edges...)
	edges = append(edges, extra...)
	return New(g.n, edges, g.directed)
}
