// Package graph provides the weighted edge-list graph shared by the
// clustering and layout stages.
//
// # Identity
//
// Nodes are the integers 0..N-1, the row ids assigned once at pipeline
// entry. Every structure that refers to a node (edges, label slices,
// positions) uses the same id space.
//
// # Core Types
//
//   - [Edge]: a directed, weighted connection between two row ids
//   - [Graph]: immutable adjacency built from an edge list
//   - [Neighbor]: an adjacent node and the connecting weight
//
// A [Graph] may be directed (the sparsifier keeps A→B without B→A) or
// undirected. [Graph.Undirected] symmetrises a directed graph by keeping the
// larger weight of each reciprocal pair.
//
// # gonum Interop
//
// [Graph.Gonum] and [Graph.GonumUndirected] convert to gonum's simple graph
// types so that gonum's topology, path, network, and community routines can
// run on the same data:
//
//	comps := g.Components()          // gonum topo.ConnectedComponents
//	hops  := g.HopDistances(5)       // gonum traverse.BreadthFirst
//
// # Serialization
//
// Edge lists round-trip through JSON:
//
//	data, _ := graph.MarshalEdges(g.Edges())
//	edges, _ := graph.UnmarshalEdges(data)
//
// # Concurrency
//
// A Graph is read-only after construction and safe for concurrent reads.
package graph
