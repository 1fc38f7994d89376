// Package project embeds a distance matrix in two dimensions.
//
// Two embeddings are provided:
//
//   - [TSNE]: exact t-SNE with perplexity calibration, early exaggeration
//     and momentum gradient descent.
//   - [UMAP]: a fuzzy k-nearest-neighbour graph optimised with attractive
//     edge updates and negative sampling, initialised from classical MDS.
//
// Both are deterministic for a given seed and return an n×2 *mat.Dense.
package project

import (
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/errors"
)

// Projection names.
const (
	MethodTSNE = "tsne"
	MethodUMAP = "umap"
)

// Options tunes both embeddings. Zero values select defaults.
type Options struct {
	Seed       uint64  `json:"seed" toml:"seed" yaml:"seed"`
	Iterations int     `json:"iterations" toml:"iterations" yaml:"iterations" validate:"gte=0"`
	Perplexity float64 `json:"perplexity" toml:"perplexity" yaml:"perplexity" validate:"gte=0"`
	Neighbors  int     `json:"neighbors" toml:"neighbors" yaml:"neighbors" validate:"gte=0"`
	MinDist    float64 `json:"min_dist" toml:"min_dist" yaml:"min_dist" validate:"gte=0"`
}

// DefaultOptions returns the embedding defaults.
func DefaultOptions() Options {
	return Options{Seed: 42, Perplexity: 30, Neighbors: 15, MinDist: 0.1}
}

// Project dispatches to the named embedding.
func Project(method string, dist *mat.Dense, opts Options) (*mat.Dense, error) {
	switch method {
	case MethodTSNE, "":
		return TSNE(dist, opts), nil
	case MethodUMAP:
		return UMAP(dist, opts), nil
	default:
		return nil, errors.New(errors.ErrCodeUnknownLayout, "unsupported projection: %s", method)
	}
}
