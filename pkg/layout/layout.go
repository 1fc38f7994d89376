package layout

import (
	"cmp"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/graph"
	"github.com/matzehuels/landscape/pkg/layout/overlap"
	"github.com/matzehuels/landscape/pkg/layout/project"
)

// Strategy names.
const (
	StrategyCluster       = "cluster"
	StrategyCircle        = "circle"
	StrategyMultiCircle   = "multicircle"
	StrategyForceDirected = "forcedirected"
	StrategyTSNE          = "tsne"
	StrategyUMAP          = "umap"
	StrategyRandom        = "random"
)

// Strategies lists every layout name accepted by [New].
func Strategies() []string {
	return []string{
		StrategyCluster, StrategyCircle, StrategyMultiCircle,
		StrategyForceDirected, StrategyTSNE, StrategyUMAP, StrategyRandom,
	}
}

// Positions maps row ids to coordinates.
type Positions map[int]r2.Vec

// IDs returns the placed row ids in ascending order.
func (p Positions) IDs() []int {
	return slices.Sorted(maps.Keys(p))
}

// Input is everything a strategy may consult. Only N is required.
type Input struct {
	N         int
	Graph     *graph.Graph
	Hierarchy community.Hierarchy

	// Similarity is used for distances when neither Distances nor Graph is
	// set.
	Similarity *mat.Dense

	// Distances is an optional caller-supplied N×N distance matrix for the
	// projection.
	Distances *mat.Dense

	// Sizes are optional per-node sizes. Nil means every node has size 1.
	Sizes []float64

	// Groups holds the grouping columns for multicircle, by column name.
	Groups map[string][]string
}

// Options configures every strategy. Fields a strategy does not use are
// ignored.
type Options struct {
	Strategy   string `json:"strategy" toml:"strategy" yaml:"strategy" validate:"required"`
	Projection string `json:"projection" toml:"projection" yaml:"projection" validate:"oneof=tsne umap"`

	// OverlapFrac is the fraction of the radius sum neighbouring circles
	// may overlap by.
	OverlapFrac  float64 `json:"overlap_frac" toml:"overlap_frac" yaml:"overlap_frac" validate:"gte=0,lt=1"`
	MaxExpansion float64 `json:"max_expansion" toml:"max_expansion" yaml:"max_expansion" validate:"gt=0"`
	ScaleFactor  float64 `json:"scale_factor" toml:"scale_factor" yaml:"scale_factor" validate:"gt=0"`
	MaxDist      int     `json:"maxdist" toml:"maxdist" yaml:"maxdist" validate:"gte=1"`
	MaxIter      int     `json:"max_iter" toml:"max_iter" yaml:"max_iter" validate:"gte=0"`

	Rotate        bool    `json:"rotate" toml:"rotate" yaml:"rotate"`
	RotateDegrees float64 `json:"rotate_degrees" toml:"rotate_degrees" yaml:"rotate_degrees"`

	// SizeColumn names the node-size attribute; the caller resolves it
	// into Input.Sizes.
	SizeColumn string `json:"size_column,omitempty" toml:"size_column" yaml:"size_column"`

	PackBelow int  `json:"pack_below" toml:"pack_below" yaml:"pack_below" validate:"gte=0"`
	PackNodes bool `json:"pack_nodes" toml:"pack_nodes" yaml:"pack_nodes"`

	OuterGroup string `json:"outer_group,omitempty" toml:"outer_group" yaml:"outer_group"`
	InnerGroup string `json:"inner_group,omitempty" toml:"inner_group" yaml:"inner_group"`

	Seed       uint64  `json:"seed" toml:"seed" yaml:"seed"`
	Iterations int     `json:"iterations" toml:"iterations" yaml:"iterations" validate:"gte=0"`
	Perplexity float64 `json:"perplexity" toml:"perplexity" yaml:"perplexity" validate:"gte=0"`
	Neighbors  int     `json:"neighbors" toml:"neighbors" yaml:"neighbors" validate:"gte=0"`
	MinDist    float64 `json:"min_dist" toml:"min_dist" yaml:"min_dist" validate:"gte=0"`

	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`
}

// DefaultOptions returns the cluster strategy with a t-SNE projection.
func DefaultOptions() Options {
	p := project.DefaultOptions()
	return Options{
		Strategy:     StrategyCluster,
		Projection:   project.MethodTSNE,
		OverlapFrac:  0.05,
		MaxExpansion: 1.5,
		ScaleFactor:  1,
		MaxDist:      5,
		MaxIter:      overlap.DefaultMaxIter,
		PackBelow:    10,
		Seed:         p.Seed,
		Perplexity:   p.Perplexity,
		Neighbors:    p.Neighbors,
		MinDist:      p.MinDist,
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return o.Logger
}

func (o Options) projection() project.Options {
	return project.Options{
		Seed:       o.Seed,
		Iterations: o.Iterations,
		Perplexity: o.Perplexity,
		Neighbors:  o.Neighbors,
		MinDist:    o.MinDist,
	}
}

// Strategy computes positions for one layout name.
type Strategy interface {
	Name() string
	Compute(in Input, opts Options) (Positions, error)
}

// New returns the strategy for name, or a CONFIG_UNKNOWN_LAYOUT error.
func New(name string) (Strategy, error) {
	switch name {
	case StrategyCluster:
		return clusterStrategy{}, nil
	case StrategyCircle:
		return circleStrategy{}, nil
	case StrategyMultiCircle:
		return multiCircleStrategy{}, nil
	case StrategyForceDirected:
		return forceStrategy{}, nil
	case StrategyTSNE:
		return projectionStrategy{method: project.MethodTSNE}, nil
	case StrategyUMAP:
		return projectionStrategy{method: project.MethodUMAP}, nil
	case StrategyRandom:
		return randomStrategy{}, nil
	default:
		return nil, errors.New(errors.ErrCodeUnknownLayout, "unsupported layout: %s", name)
	}
}

// Compute checks in, runs opts.Strategy and applies the rotation
// post-step.
func Compute(in Input, opts Options) (Positions, error) {
	s, err := New(opts.Strategy)
	if err != nil {
		return nil, err
	}
	if err := in.check(); err != nil {
		return nil, err
	}
	pos, err := s.Compute(in, opts)
	if err != nil {
		return nil, err
	}
	if opts.Rotate {
		pos = Rotate(pos, opts.RotateDegrees)
	}
	opts.logger().Debug("computed layout", "strategy", s.Name(), "placed", len(pos), "nodes", in.N)
	return pos, nil
}

// =============================================================================
// Input helpers
// =============================================================================

func (in Input) check() error {
	if in.N < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "negative node count %d", in.N)
	}
	if in.Graph != nil && in.Graph.Len() != in.N {
		return errors.New(errors.ErrCodeInvalidInput, "graph has %d nodes, want %d", in.Graph.Len(), in.N)
	}
	if in.Sizes != nil && len(in.Sizes) != in.N {
		return errors.New(errors.ErrCodeInvalidInput, "%d sizes for %d nodes", len(in.Sizes), in.N)
	}
	if err := in.Hierarchy.Validate(in.N); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "layout hierarchy")
	}
	for _, m := range []*mat.Dense{in.Distances, in.Similarity} {
		if m == nil || m.IsEmpty() {
			continue
		}
		if r, c := m.Dims(); r != in.N || c != in.N {
			return errors.New(errors.ErrCodeInvalidInput, "matrix is %dx%d, want %dx%d", r, c, in.N, in.N)
		}
	}
	for name, col := range in.Groups {
		if len(col) != in.N {
			return errors.New(errors.ErrCodeInvalidInput, "group column %q has %d values, want %d", name, len(col), in.N)
		}
	}
	return nil
}

// graph returns in.Graph or an edgeless graph of N nodes.
func (in Input) graph() *graph.Graph {
	if in.Graph != nil {
		return in.Graph
	}
	return graph.MustNew(in.N, nil, false)
}

// labels returns the coarsest cluster labels; without a hierarchy every
// node is in cluster "0".
func (in Input) labels() []string {
	if top := in.Hierarchy.Top(); top != nil {
		return top
	}
	labels := make([]string, in.N)
	for i := range labels {
		labels[i] = "0"
	}
	return labels
}

// size returns the size of node i, 1 when no sizes are given.
func (in Input) size(i int) float64 {
	if in.Sizes == nil {
		return 1
	}
	return max(in.Sizes[i], 0)
}

// distances returns the projection distances: the caller matrix, else hop
// counts capped at MaxDist, else 1 - similarity.
func (in Input) distances(opts Options) *mat.Dense {
	switch {
	case in.Distances != nil && !in.Distances.IsEmpty():
		return in.Distances
	case in.Graph == nil && in.Similarity != nil && !in.Similarity.IsEmpty():
		d := mat.NewDense(in.N, in.N, nil)
		d.Apply(func(i, j int, v float64) float64 {
			if i == j {
				return 0
			}
			return 1 - min(max(v, 0), 1)
		}, in.Similarity)
		return d
	default:
		return project.FromRows(in.graph().HopDistances(max(opts.MaxDist, 1)))
	}
}

// clusters groups row ids by label, labels ordered with
// community.CompareLabels.
func clusters(labels []string) ([]string, map[string][]int) {
	members := community.Level{Labels: labels}.Members()
	keys := slices.SortedFunc(maps.Keys(members), community.CompareLabels)
	return keys, members
}

func sortedKeys(m map[string][]int) []string {
	return slices.SortedFunc(maps.Keys(m), cmp.Compare[string])
}
