package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/landscape/pkg/graph"
	"github.com/matzehuels/landscape/pkg/layout"
)

// DefaultScale converts layout units to points.
const DefaultScale = 36.0

// palette is cycled over top-level clusters in first-seen order.
var palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// Graph is what the preview draws.
type Graph struct {
	Positions layout.Positions
	Edges     []graph.Edge

	// Clusters holds one label per row id; nil draws every node alike.
	Clusters []string

	// Labels holds optional display text per row id.
	Labels []string
}

// Options configures node-link preview rendering.
type Options struct {
	// Scale is points per layout unit; zero means DefaultScale.
	Scale float64

	// ShowEdges draws the sparsified edges between placed nodes.
	ShowEdges bool
}

// ToDOT converts a layout to Graphviz DOT with every node pinned at its
// coordinate. The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(g Graph, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=circle, style=filled, width=0.2, fixedsize=true, fontsize=8, penwidth=0];\n")
	buf.WriteString("  edge [arrowhead=none, color=\"#00000022\"];\n")
	buf.WriteString("\n")

	colors := make(map[string]string)
	for _, id := range g.Positions.IDs() {
		p := g.Positions[id]
		attrs := fmt.Sprintf("pos=\"%s,%s!\", label=%q, fillcolor=%q",
			fmtCoord(p.X*scale), fmtCoord(p.Y*scale), label(g, id), color(g, id, colors))
		fmt.Fprintf(&buf, "  n%d [%s];\n", id, attrs)
	}

	if opts.ShowEdges {
		buf.WriteString("\n")
		for _, e := range g.Edges {
			_, okS := g.Positions[e.Source]
			_, okT := g.Positions[e.Target]
			if !okS || !okT || e.Source == e.Target {
				continue
			}
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func label(g Graph, id int) string {
	if id < len(g.Labels) {
		return g.Labels[id]
	}
	return ""
}

func color(g Graph, id int, assigned map[string]string) string {
	if id >= len(g.Clusters) {
		return palette[0]
	}
	c := g.Clusters[id]
	if col, ok := assigned[c]; ok {
		return col
	}
	col := palette[len(assigned)%len(palette)]
	assigned[c] = col
	return col
}

// RenderSVG renders a DOT graph to SVG using Graphviz's neato engine so
// pinned positions are kept.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg header with a plain one that
// scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
