package similarity

import (
	"io"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/errors"
)

// TagOptions controls tag-based similarity.
type TagOptions struct {
	// IDF weights each term by log2(N/df) instead of 1.
	IDF bool `json:"idf" toml:"idf" yaml:"idf"`

	// Blacklist lists tags removed before anything else. Matching is
	// case-insensitive.
	Blacklist []string `json:"blacklist,omitempty" toml:"blacklist" yaml:"blacklist"`
}

// Report summarizes how the tag vocabulary was filtered.
type Report struct {
	Entities    int   `json:"entities"`
	Terms       int   `json:"terms"`       // tags kept as matrix features
	Blacklisted int   `json:"blacklisted"` // tag occurrences removed by the blacklist
	Singletons  int   `json:"singletons"`  // distinct tags dropped for df <= 1
	EmptyRows   []int `json:"empty_rows,omitempty"`
}

// FromTags computes the cosine similarity between entities described by tag
// lists. tags[i] holds the tags of entity i. A nil logger discards output.
func FromTags(tags [][]Tag, opts TagOptions, logger *log.Logger) (*mat.Dense, Report) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	n := len(tags)
	report := Report{Entities: n}
	if n == 0 {
		return &mat.Dense{}, report
	}

	blocked := make(map[string]bool, len(opts.Blacklist))
	for _, b := range opts.Blacklist {
		blocked[strings.ToLower(strings.TrimSpace(b))] = true
	}

	// Distinct tag names per entity, blacklist applied.
	docs := make([][]string, n)
	df := make(map[string]int)
	for i, ts := range tags {
		seen := make(map[string]bool, len(ts))
		for _, t := range ts {
			name := strings.TrimSpace(t.Name)
			if name == "" || seen[name] {
				continue
			}
			if blocked[strings.ToLower(name)] {
				report.Blacklisted++
				continue
			}
			seen[name] = true
			docs[i] = append(docs[i], name)
			df[name]++
		}
	}

	// Stable term ordering keeps the matrix reproducible.
	var vocab []string
	for name, c := range df {
		if c <= 1 {
			report.Singletons++
			continue
		}
		vocab = append(vocab, name)
	}
	slices.Sort(vocab)
	index := make(map[string]int, len(vocab))
	for j, name := range vocab {
		index[name] = j
	}
	report.Terms = len(vocab)

	sim := mat.NewDense(n, n, nil)
	if len(vocab) == 0 {
		for i := range n {
			report.EmptyRows = append(report.EmptyRows, i)
		}
		logEmptyRows(logger, report.EmptyRows)
		return sim, report
	}

	features := mat.NewDense(n, len(vocab), nil)
	for i, doc := range docs {
		kept := 0
		for _, name := range doc {
			j, ok := index[name]
			if !ok {
				continue
			}
			v := 1.0
			if opts.IDF {
				v = math.Log2(float64(n) / float64(df[name]))
			}
			if v == 0 {
				// A tag on every entity carries no IDF weight.
				continue
			}
			features.Set(i, j, v)
			kept++
		}
		if kept == 0 {
			report.EmptyRows = append(report.EmptyRows, i)
		}
	}
	logEmptyRows(logger, report.EmptyRows)

	sim.Mul(features, features.T())
	cosine(sim, logger)
	return sim, report
}

// FromEmbeddings computes the dot-product similarity of pre-normalised
// vectors. All vectors must share one dimension.
func FromEmbeddings(vecs [][]float64) (*mat.Dense, error) {
	n := len(vecs)
	if n == 0 {
		return &mat.Dense{}, nil
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"embedding %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	sim := mat.NewDense(n, n, nil)
	if dim == 0 {
		return sim, nil
	}
	e := mat.NewDense(n, dim, nil)
	for i, v := range vecs {
		e.SetRow(i, v)
	}
	sim.Mul(e, e.T())
	zeroDiagonal(sim)
	return sim, nil
}

// cosine turns a Gram matrix into cosine similarity in place. Rows with zero
// norm get a zero inverse magnitude.
func cosine(gram *mat.Dense, logger *log.Logger) {
	n, _ := gram.Dims()
	inv := make([]float64, n)
	for i := range n {
		norm := math.Sqrt(gram.At(i, i))
		if norm == 0 {
			logger.Debug("masked zero-norm row",
				"row", i,
				"err", errors.New(errors.ErrCodeZeroNorm, "row %d has zero norm", i))
			continue
		}
		inv[i] = 1 / norm
	}
	gram.Apply(func(i, j int, v float64) float64 {
		if i == j {
			return 0
		}
		return v * inv[i] * inv[j]
	}, gram)
}

func zeroDiagonal(m *mat.Dense) {
	n, _ := m.Dims()
	for i := range n {
		m.Set(i, i, 0)
	}
}

func logEmptyRows(logger *log.Logger, rows []int) {
	for _, i := range rows {
		logger.Warn("entity has no usable tags",
			"row", i,
			"err", errors.New(errors.ErrCodeEmptyTags, "entity %d keeps no tag after filtering", i))
	}
}
