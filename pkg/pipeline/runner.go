package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/feature"
	"github.com/matzehuels/landscape/pkg/graph"
	"github.com/matzehuels/landscape/pkg/layout"
	"github.com/matzehuels/landscape/pkg/observability"
	"github.com/matzehuels/landscape/pkg/similarity"
	"github.com/matzehuels/landscape/pkg/sparsify"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different inputs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs similarity → sparsify → cluster → naming → layout.
// The context is checked between stages; numeric stages run to
// completion once started.
func (r *Runner) Execute(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	logger := opts.logger()

	if in.Entities == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "entity table is required")
	}
	n := in.Entities.Len()
	if n == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "entity table is empty")
	}
	if in.Distances != nil && !in.Distances.IsEmpty() {
		if rows, cols := in.Distances.Dims(); rows != n || cols != n {
			return nil, errors.New(errors.ErrCodeInvalidInput, "distance matrix is %dx%d for %d entities", rows, cols, n)
		}
	}
	nodes := in.Entities.Clone()
	if err := nodes.Append(RowIDColumn, rowIDs(n)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "assign row ids")
	}

	result := &Result{
		RunID: uuid.NewString(),
		Nodes: nodes,
	}
	result.Stats.Nodes = n
	logger = logger.With("run", result.RunID)
	opts.Logger = logger

	// Stage 1: Similarity
	var sim *mat.Dense
	d, err := stage(ctx, observability.StageSimilarity, n, func() error {
		var err error
		sim, result.Similarity, result.CacheInfo.SimilarityHit, err = r.SimilarityWithCacheInfo(ctx, in, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Stats.SimilarityTime = d
	logger.Info("built similarity matrix",
		"entities", n,
		"terms", result.Similarity.Terms,
		"cached", result.CacheInfo.SimilarityHit,
		"duration", d)

	// Stage 2: Sparsify
	var g *graph.Graph
	d, err = stage(ctx, observability.StageSparsify, n, func() error {
		res := sparsify.Threshold(sim, opts.Sparsify)
		result.Sparsify = SparsifyReport{Threshold: res.Threshold, Budgeted: res.Budgeted, Repaired: res.Repaired}
		var err error
		g, err = graph.New(n, res.Edges, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Edges = g.Edges()
	result.Stats.Edges = len(result.Edges)
	result.Stats.SparsifyTime = d
	logger.Info("sparsified graph",
		"edges", result.Stats.Edges,
		"threshold", result.Sparsify.Threshold,
		"repaired", result.Sparsify.Repaired,
		"duration", d)

	// Stage 3: Cluster
	d, err = stage(ctx, observability.StageCluster, n, func() error {
		copts := opts.community(logger)
		copts.Similarity = sim
		var err error
		result.Hierarchy, err = community.Detect(g, copts)
		if err != nil {
			return err
		}
		return appendLabels(nodes, result.Hierarchy)
	})
	if err != nil {
		return nil, err
	}
	result.Stats.Clusters = len(community.Level{Labels: result.Hierarchy.Top()}.Sizes())
	result.Stats.ClusterTime = d
	logger.Info("detected clusters",
		"method", opts.Cluster.Method,
		"levels", result.Hierarchy.Depth(),
		"clusters", result.Stats.Clusters,
		"duration", d)

	// Stage 4: Naming and metrics
	d, err = stage(ctx, observability.StageNaming, n, func() error {
		tags, ok := entityTags(in, opts)
		if ok {
			result.Names = feature.NameHierarchy(result.Hierarchy, tags, opts.Naming)
		} else {
			logger.Debug("no tag column, cluster names left empty", "column", opts.Similarity.TagColumn)
			result.Names = make([]map[string]string, result.Hierarchy.Depth())
		}
		if err := appendNames(nodes, result.Hierarchy, result.Names); err != nil {
			return err
		}
		return appendMetrics(nodes, feature.Metrics(g, result.Hierarchy.Top()))
	})
	if err != nil {
		return nil, err
	}
	result.Stats.NamingTime = d

	// Stage 5: Layout
	d, err = stage(ctx, observability.StageLayout, n, func() error {
		lin, err := layoutInput(nodes, g, result.Hierarchy, sim, in.Distances, opts)
		if err != nil {
			return err
		}
		result.Positions, result.CacheInfo.LayoutHit, err = r.LayoutWithCacheInfo(ctx, lin, opts)
		if err != nil {
			return err
		}
		return appendPositions(nodes, result.Positions)
	})
	if err != nil {
		return nil, err
	}
	result.Stats.Placed = len(result.Positions)
	result.Stats.LayoutTime = d
	logger.Info("computed layout",
		"strategy", opts.Layout.Strategy,
		"placed", result.Stats.Placed,
		"cached", result.CacheInfo.LayoutHit,
		"duration", d)

	return result, nil
}

// =============================================================================
// Cached Stages
// =============================================================================

// similarityEntry is the cached form of a similarity stage.
type similarityEntry struct {
	Report similarity.Report `json:"report"`
	Matrix []byte            `json:"matrix"`
}

// SimilarityWithCacheInfo builds the similarity matrix with caching and
// returns cache hit info.
func (r *Runner) SimilarityWithCacheInfo(ctx context.Context, in Input, opts Options) (*mat.Dense, similarity.Report, bool, error) {
	r.applyLogger(&opts)
	logger := opts.logger()

	kind := "tags"
	var source any
	tags, ok := entityTags(in, opts)
	switch {
	case in.Embeddings != nil:
		if in.Entities != nil && len(in.Embeddings) != in.Entities.Len() {
			return nil, similarity.Report{}, false, errors.New(errors.ErrCodeInvalidInput,
				"%d embeddings for %d entities", len(in.Embeddings), in.Entities.Len())
		}
		kind, source = "embeddings", in.Embeddings
	case ok:
		source = tags
	default:
		return nil, similarity.Report{}, false, errors.New(errors.ErrCodeInvalidInput,
			"entity table has no %q column and no embeddings were given", opts.Similarity.TagColumn)
	}

	// Compute cache key; unhashable input (NaN embeddings) is not cached.
	var cacheKey string
	if inputHash, err := cache.HashJSON(source); err == nil {
		cacheKey = r.Keyer.SimilarityKey(inputHash, cache.SimilarityKeyOpts{
			Kind:      kind,
			IDF:       opts.Similarity.IDF,
			Blacklist: opts.Similarity.Blacklist,
		})
	}

	// Try cache first (unless refresh requested)
	if cacheKey != "" && !opts.Refresh {
		if sim, report, ok := r.loadSimilarity(ctx, cacheKey); ok {
			return sim, report, true, nil
		}
	}

	var (
		sim    *mat.Dense
		report similarity.Report
	)
	if kind == "embeddings" {
		var err error
		if sim, err = similarity.FromEmbeddings(in.Embeddings); err != nil {
			return nil, similarity.Report{}, false, err
		}
		report = similarity.Report{Entities: len(in.Embeddings)}
	} else {
		sim, report = similarity.FromTags(tags, similarity.TagOptions{
			IDF:       opts.Similarity.IDF,
			Blacklist: opts.Similarity.Blacklist,
		}, logger)
	}

	if cacheKey != "" {
		r.storeSimilarity(ctx, cacheKey, sim, report, logger)
	}
	return sim, report, false, nil
}

func (r *Runner) loadSimilarity(ctx context.Context, key string) (*mat.Dense, similarity.Report, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, observability.StageSimilarity)
		return nil, similarity.Report{}, false
	}
	var entry similarityEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		hooks.OnCacheMiss(ctx, observability.StageSimilarity)
		return nil, similarity.Report{}, false
	}
	sim, err := similarity.Decode(entry.Matrix)
	if err != nil {
		// If deserialization fails, fall through to recompute
		hooks.OnCacheMiss(ctx, observability.StageSimilarity)
		return nil, similarity.Report{}, false
	}
	hooks.OnCacheHit(ctx, observability.StageSimilarity)
	return sim, entry.Report, true
}

func (r *Runner) storeSimilarity(ctx context.Context, key string, sim *mat.Dense, report similarity.Report, logger *log.Logger) {
	raw, err := similarity.Encode(sim)
	if err != nil {
		logger.Debug("similarity not cached", "err", err)
		return
	}
	data, err := json.Marshal(similarityEntry{Report: report, Matrix: raw})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLSimilarity); err != nil {
		logger.Warn("cache write failed", "stage", observability.StageSimilarity, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, observability.StageSimilarity, len(data))
}

// Similarity is a convenience wrapper that calls SimilarityWithCacheInfo
// and discards the cache hit info.
func (r *Runner) Similarity(ctx context.Context, in Input, opts Options) (*mat.Dense, error) {
	sim, _, _, err := r.SimilarityWithCacheInfo(ctx, in, opts)
	return sim, err
}

// LayoutWithCacheInfo computes positions with caching and returns cache
// hit info. The key covers the graph, the hierarchy, sizes, groups and
// every layout option.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, in layout.Input, opts Options) (layout.Positions, bool, error) {
	r.applyLogger(&opts)
	logger := opts.logger()
	lopts := opts.Layout
	if lopts.Logger == nil {
		lopts.Logger = logger
	}

	// Compute cache key
	var cacheKey string
	graphHash, herr := cache.HashJSON(layoutFingerprint(in))
	config, cerr := json.Marshal(lopts)
	if herr == nil && cerr == nil {
		cacheKey = r.Keyer.LayoutKey(graphHash, cache.LayoutKeyOpts{Strategy: lopts.Strategy, Config: config})
	}

	hooks := observability.Cache()
	if cacheKey != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.Positions
			if err := json.Unmarshal(data, &cached); err == nil {
				hooks.OnCacheHit(ctx, observability.StageLayout)
				return cached, true, nil
			}
		}
		hooks.OnCacheMiss(ctx, observability.StageLayout)
	}

	pos, err := layout.Compute(in, lopts)
	if err != nil {
		return nil, false, err
	}

	if cacheKey != "" {
		if data, err := json.Marshal(pos); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
				logger.Warn("cache write failed", "stage", observability.StageLayout, "err", err)
			} else {
				hooks.OnCacheSet(ctx, observability.StageLayout, len(data))
			}
		}
	}
	return pos, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, in layout.Input, opts Options) (layout.Positions, error) {
	pos, _, err := r.LayoutWithCacheInfo(ctx, in, opts)
	return pos, err
}

// layoutFingerprint is everything besides the options that a layout
// depends on.
func layoutFingerprint(in layout.Input) any {
	levels := make([][]string, len(in.Hierarchy.Levels))
	for i, l := range in.Hierarchy.Levels {
		levels[i] = l.Labels
	}
	var edges []graph.Edge
	if in.Graph != nil {
		edges = in.Graph.Edges()
	}
	var dist []byte
	if in.Distances != nil && !in.Distances.IsEmpty() {
		dist, _ = in.Distances.MarshalBinary()
	}
	return struct {
		N         int                 `json:"n"`
		Edges     []graph.Edge        `json:"edges"`
		Levels    [][]string          `json:"levels"`
		Sizes     []float64           `json:"sizes,omitempty"`
		Groups    map[string][]string `json:"groups,omitempty"`
		Distances []byte              `json:"distances,omitempty"`
	}{in.N, edges, levels, in.Sizes, in.Groups, dist}
}

// =============================================================================
// Runner Helpers
// =============================================================================

// stage runs fn between the observability hooks after checking ctx.
func stage(ctx context.Context, name string, nodes int, fn func() error) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, name, nodes)
	start := time.Now()
	err := fn()
	d := time.Since(start)
	hooks.OnStageComplete(ctx, name, d, err)
	return d, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
