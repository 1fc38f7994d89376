package community

import (
	"cmp"
	"slices"

	"github.com/tidwall/btree"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/errors"
)

// MergeOptions controls the small-cluster merge.
type MergeOptions struct {
	Enabled bool `json:"enabled" toml:"enabled" yaml:"enabled"`

	// SizeRatio: a target must be more than SizeRatio times larger than the
	// cluster merged into it.
	SizeRatio float64 `json:"size_ratio" toml:"size_ratio" yaml:"size_ratio" validate:"gte=1"`

	// TopN candidates per small cluster are kept in the report.
	TopN int `json:"top_n" toml:"top_n" yaml:"top_n" validate:"gte=1"`

	// MaxSize caps the size of a merge target. Zero means no cap.
	MaxSize int `json:"max_size" toml:"max_size" yaml:"max_size" validate:"gte=0"`
}

// DefaultMergeOptions returns a disabled merge with the baseline parameters.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{SizeRatio: 3, TopN: 3}
}

// Candidate is a possible merge target for a small cluster.
type Candidate struct {
	Target     string  `json:"target"`
	Size       int     `json:"size"`
	Similarity float64 `json:"similarity"` // mean pairwise similarity
}

// Reassignment moves every member of From into To.
type Reassignment struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	FromSize   int     `json:"from_size"`
	ToSize     int     `json:"to_size"`
	Similarity float64 `json:"similarity"`
}

// MergeReport lists the ranked candidates and the applied reassignments.
type MergeReport struct {
	Candidates map[string][]Candidate `json:"candidates,omitempty"`
	Merges     []Reassignment         `json:"merges,omitempty"`
}

// lessReassignment orders reassignments by (small size, large size, small
// id, large id).
func lessReassignment(a, b Reassignment) bool {
	if a.FromSize != b.FromSize {
		return a.FromSize < b.FromSize
	}
	if a.ToSize != b.ToSize {
		return a.ToSize < b.ToSize
	}
	if c := CompareLabels(a.From, b.From); c != 0 {
		return c < 0
	}
	return CompareLabels(a.To, b.To) < 0
}

// Merge folds small clusters into larger, similar ones. For each cluster,
// targets must be more than SizeRatio times larger, no larger than MaxSize
// and have positive mean pairwise similarity in sim. Targets are ranked by
// similarity descending, then size ascending, then label. Each cluster with
// a target moves to its best one; moves run in increasing (small size,
// large size) order so chains such as A→B→C end in C.
//
// The returned labels are renumbered by descending size.
func Merge(labels []string, sim *mat.Dense, opts MergeOptions) ([]string, MergeReport, error) {
	if sim == nil || sim.IsEmpty() {
		return nil, MergeReport{}, errors.New(errors.ErrCodeInvalidInput, "cluster merge needs the similarity matrix")
	}
	if r, c := sim.Dims(); r != len(labels) || c != len(labels) {
		return nil, MergeReport{}, errors.New(errors.ErrCodeInvalidInput,
			"similarity is %dx%d, want %dx%d", r, c, len(labels), len(labels))
	}

	members := Level{Labels: labels}.Members()
	ids := sortedKeys(members)
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	k := len(ids)
	sums := make([]float64, k*k)
	for i, li := range labels {
		a := index[li]
		for j, lj := range labels {
			if i != j {
				sums[a*k+index[lj]] += sim.At(i, j)
			}
		}
	}

	report := MergeReport{Candidates: make(map[string][]Candidate)}
	plan := btree.NewBTreeG[Reassignment](lessReassignment)

	for a, small := range ids {
		sa := len(members[small])
		var cands []Candidate
		for b, large := range ids {
			sb := len(members[large])
			if a == b || float64(sb) <= opts.SizeRatio*float64(sa) {
				continue
			}
			if opts.MaxSize > 0 && sb > opts.MaxSize {
				continue
			}
			mean := sums[a*k+b] / float64(sa*sb)
			if mean <= 0 {
				continue
			}
			cands = append(cands, Candidate{Target: large, Size: sb, Similarity: mean})
		}
		if len(cands) == 0 {
			continue
		}
		slices.SortFunc(cands, func(x, y Candidate) int {
			if c := cmp.Compare(y.Similarity, x.Similarity); c != 0 {
				return c
			}
			if c := cmp.Compare(x.Size, y.Size); c != 0 {
				return c
			}
			return CompareLabels(x.Target, y.Target)
		})
		if opts.TopN > 0 && len(cands) > opts.TopN {
			cands = cands[:opts.TopN]
		}
		report.Candidates[small] = cands

		best := cands[0]
		plan.Set(Reassignment{
			From:       small,
			To:         best.Target,
			FromSize:   sa,
			ToSize:     best.Size,
			Similarity: best.Similarity,
		})
	}

	out := slices.Clone(labels)
	plan.Scan(func(r Reassignment) bool {
		for i, l := range out {
			if l == r.From {
				out[i] = r.To
			}
		}
		report.Merges = append(report.Merges, r)
		return true
	})

	return relabel(out), report, nil
}
