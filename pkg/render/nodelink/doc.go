// Package nodelink exports a computed layout as a Graphviz node-link
// preview.
//
// # Overview
//
// Positions come from the layout stage; Graphviz only draws them. Every
// node is pinned at its layout coordinate (neato with pos="x,y!"), filled
// with a color per top-level cluster, and optionally connected by the
// sparsified edges. Nodes without a position are left out.
//
// # Usage
//
//	dot := nodelink.ToDOT(nodelink.Graph{
//	    Positions: result.Positions,
//	    Edges:     result.Edges,
//	    Clusters:  result.Hierarchy.Top(),
//	}, nodelink.Options{Scale: 50, ShowEdges: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
