// Package pkg provides the core libraries for Landscape entity clustering.
//
// # Overview
//
// Landscape turns a table of tagged (or embedded) entities into a map: a
// sparse similarity graph, a hierarchy of named clusters, per-node network
// metrics and 2D coordinates that keep clusters in separate regions.
//
// # Architecture
//
// The data flow through Landscape:
//
//	Entity table (CSV)
//	         ↓
//	    [similarity] tags or embeddings → dense cosine matrix
//	         ↓
//	    [sparsify] connectivity floor + per-row edge budget → [graph]
//	         ↓
//	    [community] Louvain or Leiden hierarchy, optional small-cluster merge
//	         ↓
//	    [feature] cluster names (tag lift) and node metrics
//	         ↓
//	    [layout] 2D positions, overlap resolution
//	         ↓
//	    nodes.csv / edges.csv / summary.json ([io]), DOT/SVG ([render/nodelink])
//
// [pipeline] chains the stages with caching ([cache]) and stage hooks
// ([observability]) so the CLI and library callers behave identically.
//
// # Quick Start
//
//	t, _ := io.ImportEntities("repos.csv")
//	res, err := pipeline.Run(ctx, pipeline.Input{Entities: t}, pipeline.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = io.ExportNodes(res.Nodes, "nodes.csv")
//
// Stages can also be used on their own:
//
//	sim, report := similarity.FromTags(tags, similarity.TagOptions{}, nil)
//	sp := sparsify.Threshold(sim, sparsify.DefaultOptions())
//	g, _ := graph.New(n, sp.Edges, true)
//	h, _ := community.Detect(g, community.DefaultOptions())
//	names := feature.NameHierarchy(h, tags, feature.DefaultNamingOptions())
//
// # Main Packages
//
// [table] - Column-oriented entity table; input columns are never modified.
//
// [graph] - Weighted directed graph with undirected views, components and
// hop distances, backed by gonum.
//
// [errors] - Coded errors (INVALID_INPUT, CONFIG_*, DATA_*, GRAPH_*).
//
// [buildinfo] - Version information set via ldflags.
package pkg
