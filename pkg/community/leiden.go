package community

import (
	"gonum.org/v1/gonum/graph/community"

	"github.com/matzehuels/landscape/pkg/graph"
)

type leidenDetector struct{}

// Detect clusters the whole graph at Resolution[0] and, for every further
// resolution, re-clusters each sufficiently large cluster on its induced
// subgraph. Clusters below MinSizes[k] become a single child "{parent}_0".
func (leidenDetector) Detect(g *graph.Graph, opts Options) (Hierarchy, error) {
	if err := opts.ValidateResolution(); err != nil {
		return Hierarchy{}, err
	}
	logger := opts.logger()
	n := g.Len()

	top := flatLabels(n, Partition(g, opts.Resolution[0]))
	var mergeReport *MergeReport
	if opts.Merge.Enabled && n > 0 {
		merged, report, err := Merge(top, opts.Similarity, opts.Merge)
		if err != nil {
			return Hierarchy{}, err
		}
		logger.Debug("merged small clusters", "merges", len(report.Merges))
		top = merged
		mergeReport = &report
	}
	partitions := [][]int{membershipOf(top)}

	for k := 1; k < len(opts.Resolution); k++ {
		prev := flatLabels(n, groups(partitions[k-1]))
		members := Level{Labels: prev}.Members()

		next := make([]int, n)
		id := 0
		for _, lab := range sortedKeys(members) {
			nodes := members[lab]
			if len(nodes) < opts.MinSizes[k-1] {
				for _, node := range nodes {
					next[node] = id
				}
				id++
				continue
			}
			sub, global := g.Subgraph(nodes)
			for _, grp := range Partition(sub, opts.Resolution[k]) {
				for _, local := range grp {
					next[global[local]] = id
				}
				id++
			}
		}
		partitions = append(partitions, next)
		logger.Debug("refined hierarchy level", "depth", k, "resolution", opts.Resolution[k], "clusters", id)
	}

	h := nest(partitions)
	h.Merge = mergeReport
	return h, nil
}

// Partition returns a flat, well-connected partition of g at the given
// resolution: gonum's modularity optimiser, then a split of each community
// into its connected components. Groups are ordered by descending size,
// then smallest member.
func Partition(g *graph.Graph, resolution float64) [][]int {
	n := g.Len()
	if n == 0 {
		return nil
	}
	membership := make([]int, n)
	if g.EdgeCount() == 0 {
		for i := range membership {
			membership[i] = i
		}
		return groups(membership)
	}

	reduced := community.Modularize(g.Gonum(), resolution, nil)
	id := 0
	for _, comm := range reduced.Communities() {
		nodes := make([]int, len(comm))
		for i, nd := range comm {
			nodes[i] = int(nd.ID())
		}
		sub, global := g.Subgraph(nodes)
		for _, comp := range sub.Components() {
			for _, local := range comp {
				membership[global[local]] = id
			}
			id++
		}
	}
	return groups(membership)
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortLabels(keys)
	return keys
}
