package community

import (
	"github.com/matzehuels/landscape/pkg/graph"
)

// Modularity returns the modularity of a flat labelling of g at the given
// resolution. Directed graphs use the directed null model; undirected
// graphs are scored as if every edge were two opposite arcs, which matches
// the classic undirected definition. Negative weights are rejected with an
// INVALID_INPUT error.
func Modularity(g *graph.Graph, labels []string, resolution float64) (float64, error) {
	a, err := arcsFrom(g)
	if err != nil {
		return 0, err
	}
	return a.modularity(membershipOf(labels), resolution), nil
}
