package community

import (
	"cmp"
	"io"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/graph"
)

// Method names.
const (
	MethodLouvain = "louvain"
	MethodLeiden  = "leiden"
)

// Louvain dendrogram selectors for [Options.Level].
const (
	// LevelBest selects the coarsest dendrogram level.
	LevelBest = -1
	// LevelAll turns every dendrogram level into a hierarchy level.
	LevelAll = -2
)

// DefaultResolution is the modularity resolution γ used when none is given.
const DefaultResolution = 1.0

// Options configures community detection.
type Options struct {
	Method string `json:"method" toml:"method" yaml:"method" validate:"required"`

	// Resolution holds one value for a flat partition or an ordered list for
	// a hierarchical Leiden run. Louvain uses the first value.
	Resolution []float64 `json:"resolution" toml:"resolution" yaml:"resolution" validate:"required,min=1,dive,gt=0"`

	// MinSizes[k] is the smallest level-k cluster that is re-clustered at
	// Resolution[k+1]. Must have len(Resolution)-1 entries.
	MinSizes []int `json:"min_sizes,omitempty" toml:"min_sizes" yaml:"min_sizes" validate:"dive,gte=1"`

	// Level selects the Louvain dendrogram level: 0 is finest, LevelBest
	// the coarsest, LevelAll every level.
	Level int `json:"level" toml:"level" yaml:"level" validate:"gte=-2"`

	Merge MergeOptions `json:"merge" toml:"merge" yaml:"merge"`

	// Similarity is the original matrix, required when Merge is enabled.
	Similarity *mat.Dense `json:"-" toml:"-" yaml:"-"`

	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`
}

// DefaultOptions returns a flat Louvain configuration at resolution 1.
func DefaultOptions() Options {
	return Options{
		Method:     MethodLouvain,
		Resolution: []float64{DefaultResolution},
		Level:      LevelBest,
		Merge:      DefaultMergeOptions(),
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return o.Logger
}

// ValidateResolution checks the shape of the resolution list.
func (o Options) ValidateResolution() error {
	if len(o.Resolution) == 0 {
		return errors.New(errors.ErrCodeInvalidResolution, "resolution list is empty")
	}
	for i, r := range o.Resolution {
		if !(r > 0) {
			return errors.New(errors.ErrCodeInvalidResolution, "resolution[%d] = %v must be positive", i, r)
		}
	}
	if len(o.Resolution) > 1 {
		if len(o.MinSizes) != len(o.Resolution)-1 {
			return errors.New(errors.ErrCodeInvalidResolution,
				"min_sizes has %d entries, want %d for %d resolutions",
				len(o.MinSizes), len(o.Resolution)-1, len(o.Resolution))
		}
		for i, s := range o.MinSizes {
			if s < 1 {
				return errors.New(errors.ErrCodeInvalidResolution, "min_sizes[%d] = %d must be at least 1", i, s)
			}
		}
	}
	return nil
}

// =============================================================================
// Detector
// =============================================================================

// Detector assigns hierarchical cluster labels to graph nodes.
type Detector interface {
	Detect(g *graph.Graph, opts Options) (Hierarchy, error)
}

// NewDetector returns the detector for a method name.
func NewDetector(method string) (Detector, error) {
	switch method {
	case MethodLouvain:
		return louvainDetector{}, nil
	case MethodLeiden:
		return leidenDetector{}, nil
	default:
		return nil, errors.New(errors.ErrCodeUnknownMethod,
			"unsupported clustering method %q (must be one of: %s, %s)", method, MethodLouvain, MethodLeiden)
	}
}

// Detect is a convenience wrapper that selects the detector from
// opts.Method and runs it.
func Detect(g *graph.Graph, opts Options) (Hierarchy, error) {
	d, err := NewDetector(opts.Method)
	if err != nil {
		return Hierarchy{}, err
	}
	return d.Detect(g, opts)
}

// =============================================================================
// Partition helpers
// =============================================================================

// groups turns a membership slice into member lists, ordered by descending
// size, then smallest member. Members are sorted ascending.
func groups(membership []int) [][]int {
	byID := make(map[int][]int)
	for node, c := range membership {
		byID[c] = append(byID[c], node)
	}
	out := make([][]int, 0, len(byID))
	for _, members := range byID {
		out = append(out, members)
	}
	sortGroups(out)
	return out
}

func sortGroups(gs [][]int) {
	for _, g := range gs {
		slices.Sort(g)
	}
	slices.SortFunc(gs, func(a, b []int) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a[0], b[0])
	})
}

// flatLabels renders groups as "0", "1", ... by row id.
func flatLabels(n int, gs [][]int) []string {
	labels := make([]string, n)
	for i, members := range gs {
		name := strconv.Itoa(i)
		for _, node := range members {
			labels[node] = name
		}
	}
	return labels
}

// relabel renumbers arbitrary labels by descending size, then smallest member.
func relabel(labels []string) []string {
	ids := make(map[string]int)
	membership := make([]int, len(labels))
	for i, l := range labels {
		id, ok := ids[l]
		if !ok {
			id = len(ids)
			ids[l] = id
		}
		membership[i] = id
	}
	return flatLabels(len(labels), groups(membership))
}
