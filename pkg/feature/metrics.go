package feature

import (
	"math"

	"gonum.org/v1/gonum/graph/network"

	"github.com/matzehuels/landscape/pkg/graph"
)

// PageRank parameters for cluster centrality.
const (
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6
)

// Metric column names appended to the node table.
const (
	ColumnDegree     = "n_links"
	ColumnInDegree   = "in_links"
	ColumnOutDegree  = "out_links"
	ColumnBridging   = "bridging"
	ColumnDiversity  = "diversity"
	ColumnCentrality = "cluster_centrality"
	ColumnSize       = "cluster_size"
)

// NodeMetrics holds the network attributes of one node.
type NodeMetrics struct {
	Degree      int     `json:"n_links"`
	InDegree    int     `json:"in_links"`
	OutDegree   int     `json:"out_links"`
	Bridging    float64 `json:"bridging"`
	Diversity   float64 `json:"diversity"`
	Centrality  float64 `json:"cluster_centrality"`
	ClusterSize int     `json:"cluster_size"`
}

// Metrics computes network attributes for every node of g grouped by
// labels (one label per row id).
func Metrics(g *graph.Graph, labels []string) []NodeMetrics {
	n := g.Len()
	out := make([]NodeMetrics, n)

	members := make(map[string][]int)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	clusters := len(members)

	for i := range n {
		m := &out[i]
		m.OutDegree = g.OutDegree(i)
		m.InDegree = g.InDegree(i)
		m.Degree = g.Degree(i)
		m.ClusterSize = len(members[labels[i]])

		reach := make(map[string]int)
		incident, crossing := 0, 0
		visit := func(nbs []graph.Neighbor) {
			for _, nb := range nbs {
				if nb.ID == i {
					continue
				}
				incident++
				reach[labels[nb.ID]]++
				if labels[nb.ID] != labels[i] {
					crossing++
				}
			}
		}
		visit(g.Out(i))
		if g.Directed() {
			visit(g.In(i))
		}
		if incident > 0 {
			m.Bridging = float64(crossing) / float64(incident)
		}
		m.Diversity = normalizedEntropy(reach, incident, clusters)
	}

	for _, nodes := range members {
		for i, c := range clusterCentrality(g, nodes) {
			out[nodes[i]].Centrality = c
		}
	}
	return out
}

// normalizedEntropy is the Shannon entropy of counts divided by its maximum
// log(min(total, clusters)).
func normalizedEntropy(counts map[string]int, total, clusters int) float64 {
	k := min(total, clusters)
	if k < 2 {
		return 0
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}
	return h / math.Log(float64(k))
}

// clusterCentrality returns PageRank of each member on the cluster's
// induced subgraph, scaled so the maximum is 1.
func clusterCentrality(g *graph.Graph, nodes []int) []float64 {
	scores := make([]float64, len(nodes))
	if len(nodes) == 1 {
		scores[0] = 1
		return scores
	}
	sub, _ := g.Subgraph(nodes)
	ranks := network.PageRank(sub.GonumDirected(), pageRankDamping, pageRankTolerance)

	best := 0.0
	for i := range nodes {
		scores[i] = ranks[int64(i)]
		best = max(best, scores[i])
	}
	if best > 0 {
		for i := range scores {
			scores[i] /= best
		}
	}
	return scores
}
