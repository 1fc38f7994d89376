package force

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/spatial/r2"
)

// EadesOptions tunes [Eades].
type EadesOptions struct {
	Updates   int
	Repulsion float64
	Rate      float64
	Theta     float64
	// Seed drives the initial placement.
	Seed uint64
}

// DefaultEadesOptions returns settings that settle graphs of a few thousand
// nodes.
func DefaultEadesOptions() EadesOptions {
	return EadesOptions{Updates: 100, Repulsion: 1, Rate: 0.05, Theta: 0.2}
}

// Eades runs gonum's Eades optimiser over g and returns the normalised
// coordinate of every node id in ids. The same graph and seed give the
// same coordinates.
func Eades(g graph.Undirected, ids []int64, opts EadesOptions) []r2.Vec {
	def := DefaultEadesOptions()
	if opts.Updates <= 0 {
		opts.Updates = def.Updates
	}
	if opts.Repulsion <= 0 {
		opts.Repulsion = def.Repulsion
	}
	if opts.Rate <= 0 {
		opts.Rate = def.Rate
	}
	if opts.Theta <= 0 {
		opts.Theta = def.Theta
	}
	eades := layout.EadesR2{
		Updates:   opts.Updates,
		Repulsion: opts.Repulsion,
		Rate:      opts.Rate,
		Theta:     opts.Theta,
		Src:       rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15),
	}
	o := layout.NewOptimizerR2(inIDOrder(g), eades.Update)
	for o.Update() {
	}
	pos := make([]r2.Vec, len(ids))
	for i, id := range ids {
		pos[i] = o.Coord2(id)
	}
	return Normalize(pos)
}

// =============================================================================
// Ordered Iteration
// =============================================================================

// gonum's simple graphs iterate nodes in map order, which would make the
// seeded start positions land on different nodes from run to run.

type orderedGraph struct {
	graph.Undirected
}

func (g orderedGraph) Nodes() graph.Nodes { return sortedNodes(g.Undirected.Nodes()) }

func (g orderedGraph) From(id int64) graph.Nodes { return sortedNodes(g.Undirected.From(id)) }

type orderedWeighted struct {
	orderedGraph
	w graph.Weighted
}

func (g orderedWeighted) WeightedEdge(uid, vid int64) graph.WeightedEdge {
	return g.w.WeightedEdge(uid, vid)
}

func (g orderedWeighted) Weight(xid, yid int64) (float64, bool) { return g.w.Weight(xid, yid) }

func inIDOrder(g graph.Undirected) graph.Undirected {
	if w, ok := g.(graph.Weighted); ok {
		return orderedWeighted{orderedGraph: orderedGraph{g}, w: w}
	}
	return orderedGraph{g}
}

func sortedNodes(it graph.Nodes) graph.Nodes {
	nodes := graph.NodesOf(it)
	if len(nodes) == 0 {
		return graph.Empty
	}
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
	return iterator.NewOrderedNodes(nodes)
}
