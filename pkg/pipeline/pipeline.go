// Package pipeline runs the complete landscape pipeline over an entity
// table.
//
// This package chains the core stages so the CLI and library callers get
// identical behavior:
//
//  1. Similarity: tags (or embeddings) to a dense similarity matrix
//  2. Sparsify: threshold the matrix into a sparse directed graph
//  3. Cluster: Louvain or Leiden community hierarchy, optional merge
//  4. Naming: network metrics per node and tag names per cluster
//  5. Layout: 2D coordinates from the selected strategy
//
// Input columns are never modified. The result's node table is a copy of
// the input with row_id, cluster label, cluster name, metric and x/y
// columns appended.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Input{Entities: t}, pipeline.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.Clusters, "clusters")
//
// The similarity matrix and the layout positions are cached; a nil cache
// disables caching.
package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/graph"
	"github.com/matzehuels/landscape/pkg/layout"
	"github.com/matzehuels/landscape/pkg/similarity"
	"github.com/matzehuels/landscape/pkg/table"
)

// Input is one batch of entities.
type Input struct {
	// Entities is the caller's table; row i is entity i.
	Entities *table.Table

	// Embeddings optionally replaces tag similarity with cosine similarity
	// of these vectors, one per entity.
	Embeddings [][]float64

	// Distances optionally supplies the N×N distance matrix the layout
	// projects instead of graph hop distances.
	Distances *mat.Dense
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and summaries.
	RunID string `json:"run_id"`

	// Nodes is the input table with the pipeline's columns appended.
	Nodes *table.Table `json:"-"`

	// Edges is the sparsified graph, sorted by (source, target).
	Edges []graph.Edge `json:"-"`

	Hierarchy community.Hierarchy `json:"hierarchy"`

	// Names holds the cluster names per hierarchy level.
	Names []map[string]string `json:"names"`

	Positions layout.Positions `json:"-"`

	Similarity similarity.Report `json:"similarity"`
	Sparsify   SparsifyReport    `json:"sparsify"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache"`
}

// SparsifyReport summarizes the sparsification stage.
type SparsifyReport struct {
	Threshold float64 `json:"threshold"`
	Budgeted  bool    `json:"budgeted"`
	Repaired  int     `json:"repaired"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
	Clusters int `json:"clusters"` // level-0 clusters
	Placed   int `json:"placed"`   // nodes with coordinates

	SimilarityTime time.Duration `json:"similarity_time"`
	SparsifyTime   time.Duration `json:"sparsify_time"`
	ClusterTime    time.Duration `json:"cluster_time"`
	NamingTime     time.Duration `json:"naming_time"`
	LayoutTime     time.Duration `json:"layout_time"`
}

// CacheInfo tracks cache hits for each cached stage.
type CacheInfo struct {
	SimilarityHit bool `json:"similarity_hit"`
	LayoutHit     bool `json:"layout_hit"`
}

// Run executes the pipeline without a cache.
func Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	return NewRunner(nil, nil, opts.Logger).Execute(ctx, in, opts)
}
