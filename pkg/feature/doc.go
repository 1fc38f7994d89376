// Package feature derives per-node network attributes and human-readable
// cluster names.
//
// # Network Attributes
//
// [Metrics] computes, for a graph and one label per node:
//
//   - Degree, in-degree, and out-degree
//   - Bridging: the fraction of a node's incident edges that leave its
//     cluster
//   - Diversity: Shannon entropy of the clusters a node's edges reach,
//     normalised to [0, 1]
//   - Centrality: PageRank inside the node's cluster, scaled so the most
//     central member scores 1
//   - Cluster size
//
// # Cluster Naming
//
// [NameClusters] scores each tag of a cluster by lift, the ratio of its
// frequency inside the cluster to its frequency overall. Tags with lift at
// most 1 are not characteristic and are dropped. Survivors are ranked by
// local weight × √lift and single-word tags already contained in a chosen
// multi-word tag are skipped:
//
//	names := feature.NameClusters(labels, tags, feature.DefaultNamingOptions())
//	fmt.Println(names["0"]) // "machine learning, robotics, vision"
//
// Naming is independent per hierarchy level; see [NameHierarchy].
package feature
