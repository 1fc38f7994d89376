package pipeline

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/feature"
	"github.com/matzehuels/landscape/pkg/graph"
	"github.com/matzehuels/landscape/pkg/layout"
	"github.com/matzehuels/landscape/pkg/similarity"
	"github.com/matzehuels/landscape/pkg/table"
)

// =============================================================================
// Reading Entity Columns
// =============================================================================

func rowIDs(n int) []any {
	ids := make([]any, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// entityTags parses the tag column. It reports false when the table has
// no such column.
func entityTags(in Input, opts Options) ([][]similarity.Tag, bool) {
	if in.Entities == nil {
		return nil, false
	}
	col, ok := in.Entities.Column(opts.Similarity.TagColumn)
	if !ok {
		return nil, false
	}
	tags := make([][]similarity.Tag, len(col))
	for i, v := range col {
		tags[i] = similarity.ParseTags(v, opts.Similarity.Delimiter)
	}
	return tags, true
}

// floatColumn reads a numeric column. Empty cells count as 0.
func floatColumn(t *table.Table, name string) ([]float64, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "size column %q not found", name)
	}
	out := make([]float64, len(col))
	for i, v := range col {
		switch x := v.(type) {
		case float64:
			out[i] = x
		case int:
			out[i] = float64(x)
		default:
			s := strings.TrimSpace(table.Cell(v))
			if s == "" {
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "size column %q row %d", name, i)
			}
			out[i] = f
		}
	}
	return out, nil
}

// layoutInput assembles the layout stage input from the decorated node
// table. Group columns may name input columns or cluster columns.
func layoutInput(nodes *table.Table, g *graph.Graph, h community.Hierarchy, sim, dist *mat.Dense, opts Options) (layout.Input, error) {
	in := layout.Input{
		N:          nodes.Len(),
		Graph:      g,
		Hierarchy:  h,
		Similarity: sim,
		Distances:  dist,
	}
	if col := opts.Layout.SizeColumn; col != "" {
		sizes, err := floatColumn(nodes, col)
		if err != nil {
			return layout.Input{}, err
		}
		in.Sizes = sizes
	}
	for _, col := range []string{opts.Layout.OuterGroup, opts.Layout.InnerGroup} {
		if col == "" {
			continue
		}
		if values, ok := nodes.Strings(col); ok {
			if in.Groups == nil {
				in.Groups = make(map[string][]string)
			}
			in.Groups[col] = values
		}
	}
	return in, nil
}

// =============================================================================
// Appending Result Columns
// =============================================================================

func appendLabels(nodes *table.Table, h community.Hierarchy) error {
	for _, lvl := range h.Levels {
		values := make([]any, len(lvl.Labels))
		for i, l := range lvl.Labels {
			values[i] = l
		}
		if err := nodes.Append(community.ColumnName(lvl.Depth), values); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "append cluster labels")
		}
	}
	return nil
}

func appendNames(nodes *table.Table, h community.Hierarchy, names []map[string]string) error {
	for d, lvl := range h.Levels {
		values := make([]any, len(lvl.Labels))
		for i, l := range lvl.Labels {
			values[i] = names[d][l]
		}
		if err := nodes.Append(feature.NameColumn(community.ColumnName(lvl.Depth)), values); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "append cluster names")
		}
	}
	return nil
}

func appendMetrics(nodes *table.Table, metrics []feature.NodeMetrics) error {
	cols := []struct {
		name string
		get  func(feature.NodeMetrics) any
	}{
		{feature.ColumnDegree, func(m feature.NodeMetrics) any { return m.Degree }},
		{feature.ColumnInDegree, func(m feature.NodeMetrics) any { return m.InDegree }},
		{feature.ColumnOutDegree, func(m feature.NodeMetrics) any { return m.OutDegree }},
		{feature.ColumnBridging, func(m feature.NodeMetrics) any { return m.Bridging }},
		{feature.ColumnDiversity, func(m feature.NodeMetrics) any { return m.Diversity }},
		{feature.ColumnCentrality, func(m feature.NodeMetrics) any { return m.Centrality }},
		{feature.ColumnSize, func(m feature.NodeMetrics) any { return m.ClusterSize }},
	}
	for _, c := range cols {
		values := make([]any, len(metrics))
		for i, m := range metrics {
			values[i] = c.get(m)
		}
		if err := nodes.Append(c.name, values); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "append metrics")
		}
	}
	return nil
}

// appendPositions adds x and y; nodes without a position get nil cells.
func appendPositions(nodes *table.Table, pos layout.Positions) error {
	xs := make([]any, nodes.Len())
	ys := make([]any, nodes.Len())
	for id, p := range pos {
		xs[id], ys[id] = p.X, p.Y
	}
	if err := nodes.Append(XColumn, xs); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "append coordinates")
	}
	if err := nodes.Append(YColumn, ys); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "append coordinates")
	}
	return nil
}
