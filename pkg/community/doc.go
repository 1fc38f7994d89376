// Package community partitions a similarity graph into hierarchical
// clusters.
//
// # Strategies
//
// The method is a closed set chosen once through [NewDetector]:
//
//   - [MethodLouvain]: deterministic, directed-aware modularity optimisation
//     with node-order passes and graph contraction. Any dendrogram level can
//     be extracted, or all of them as a hierarchy.
//   - [MethodLeiden]: gonum's modularity optimiser followed by a split of
//     every community into its connected components, so no community is
//     internally disconnected. A resolution list builds a hierarchy by
//     re-clustering each cluster's induced subgraph.
//
// An unknown method is a CONFIG_UNKNOWN_METHOD error.
//
// # Hierarchy
//
// A [Hierarchy] is an ordered list of [Level] values, coarsest first. Every
// node carries exactly one label per level. Labels at level 0 are "0", "1",
// ... and finer labels are prefixed by their parent ("3_0", "3_1"). Within a
// parent, labels are numbered by descending size, then smallest member.
//
// # Merging
//
// With [MergeOptions.Enabled], small clusters at level 0 are folded into a
// much larger, similar cluster before finer levels are derived. See [Merge].
//
// # Modularity
//
// [Modularity] scores a flat partition with the directed null model
//
//	Q = 1/m Σ_c [ W(c) - γ·Kout(c)·Kin(c)/m ]
//
// which reduces to the usual undirected formula when every edge is present
// in both directions.
package community
