package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/pipeline"
	"github.com/matzehuels/landscape/pkg/similarity"
)

// Summary is the JSON digest of a pipeline run.
type Summary struct {
	RunID      string                  `json:"run_id"`
	Stats      pipeline.Stats          `json:"stats"`
	Cache      pipeline.CacheInfo      `json:"cache"`
	Similarity similarity.Report       `json:"similarity"`
	Sparsify   pipeline.SparsifyReport `json:"sparsify"`
	Levels     []LevelSummary          `json:"levels"`
	Merge      *community.MergeReport  `json:"merge,omitempty"`
}

// LevelSummary lists the clusters of one hierarchy level.
type LevelSummary struct {
	Depth    int              `json:"depth"`
	Column   string           `json:"column"`
	Clusters []ClusterSummary `json:"clusters"`
}

// ClusterSummary describes one cluster.
type ClusterSummary struct {
	Label   string `json:"label"`
	Parent  string `json:"parent,omitempty"`
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Members []int  `json:"members"` // row ids, ascending
}

// NewSummary digests a pipeline result. Clusters are ordered by label.
func NewSummary(res *pipeline.Result) Summary {
	s := Summary{
		RunID:      res.RunID,
		Stats:      res.Stats,
		Cache:      res.CacheInfo,
		Similarity: res.Similarity,
		Sparsify:   res.Sparsify,
		Merge:      res.Hierarchy.Merge,
	}
	for d, lvl := range res.Hierarchy.Levels {
		members := lvl.Members()
		labels := lvl.Clusters()
		slices.SortFunc(labels, community.CompareLabels)

		ls := LevelSummary{Depth: lvl.Depth, Column: community.ColumnName(lvl.Depth)}
		for _, label := range labels {
			cs := ClusterSummary{
				Label:   label,
				Parent:  lvl.Parent[label],
				Size:    len(members[label]),
				Members: members[label],
			}
			if d < len(res.Names) {
				cs.Name = res.Names[d][label]
			}
			ls.Clusters = append(ls.Clusters, cs)
		}
		s.Levels = append(s.Levels, ls)
	}
	return s
}

// WriteSummary encodes s as indented JSON.
func WriteSummary(s Summary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportSummary writes s to a JSON file at path.
func ExportSummary(s Summary, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteSummary(s, w) })
}

// ReadSummary decodes a summary written by [WriteSummary].
func ReadSummary(r io.Reader) (Summary, error) {
	var s Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Summary{}, fmt.Errorf("decode: %w", err)
	}
	return s, nil
}

// ImportSummary reads a summary JSON file at path.
func ImportSummary(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSummary(f)
}
