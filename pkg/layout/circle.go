package layout

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/graph"
	"github.com/matzehuels/landscape/pkg/layout/overlap"
	"github.com/matzehuels/landscape/pkg/layout/pack"
)

// PlaceholderGroup is the group assigned to nodes with no value at a
// grouping level.
func PlaceholderGroup(level int) string {
	return fmt.Sprintf("No_Level_%d", level)
}

// region is a laid-out set of members inside a circle centred on the
// origin.
type region struct {
	members []int
	local   []r2.Vec
	radius  float64
}

// placeMembers lays out members inside one circle. Small groups, or all
// groups when PackNodes is set, are circle packed with node radius
// ScaleFactor × size. Others get a compressed Kamada-Kawai layout scaled
// to radius ScaleFactor × sqrt(Σ size²).
func placeMembers(g *graph.Graph, in Input, members []int, label string, opts Options) region {
	if opts.PackNodes || len(members) <= opts.PackBelow {
		radii := make([]float64, len(members))
		for i, id := range members {
			radii[i] = opts.ScaleFactor * in.size(id)
		}
		p := pack.Pack(radii)
		return region{members: members, local: p.Centers, radius: p.Radius}
	}

	var ss float64
	for _, id := range members {
		s := in.size(id)
		ss += s * s
	}
	want := opts.ScaleFactor * math.Sqrt(ss)
	local := localLayout(g, members, label, opts.logger())
	scale(local, want)
	local, radius := Compress(local, opts.MaxExpansion)
	if radius > 0 {
		scale(local, want/radius)
	}
	return region{members: members, local: local, radius: want}
}

// compose packs regions, resolves any remaining overlap and writes the
// absolute member positions into pos. It returns the enclosing radius of
// the packing.
func compose(regions []region, opts Options, offset r2.Vec, pos Positions) float64 {
	radii := make([]float64, len(regions))
	for i, r := range regions {
		radii[i] = r.radius
	}
	packed := pack.Pack(radii)
	circles := make([]overlap.Circle, len(regions))
	for i := range regions {
		circles[i] = overlap.Circle{ID: i, Center: packed.Centers[i], Radius: radii[i]}
	}
	rep := overlap.Resolve(circles, opts.OverlapFrac, opts.MaxIter)

	enclosing := packed.Radius
	for i, r := range regions {
		center := rep.Circles[i].Center
		enclosing = max(enclosing, r2.Norm(center)+r.radius)
		for j, id := range r.members {
			pos[id] = r2.Add(offset, r2.Add(center, r.local[j]))
		}
	}
	return enclosing
}

// circleStrategy packs one circle per top-level cluster.
type circleStrategy struct{}

func (circleStrategy) Name() string { return StrategyCircle }

func (circleStrategy) Compute(in Input, opts Options) (Positions, error) {
	pos := make(Positions, in.N)
	if in.N == 0 {
		return pos, nil
	}
	g := in.graph()
	keys, members := clusters(in.labels())
	regions := make([]region, len(keys))
	for k, label := range keys {
		regions[k] = placeMembers(g, in, members[label], label, opts)
	}
	compose(regions, opts, r2.Vec{}, pos)
	return pos, nil
}

// multiCircleStrategy nests inner-group circles inside outer-group circles.
type multiCircleStrategy struct{}

func (multiCircleStrategy) Name() string { return StrategyMultiCircle }

func (multiCircleStrategy) Compute(in Input, opts Options) (Positions, error) {
	pos := make(Positions, in.N)
	if in.N == 0 {
		return pos, nil
	}
	outer, err := in.groupValues(opts.OuterGroup, 0)
	if err != nil {
		return nil, err
	}
	inner, err := in.groupValues(opts.InnerGroup, 1)
	if err != nil {
		return nil, err
	}

	byOuter := make(map[string][]int)
	for i, o := range outer {
		byOuter[o] = append(byOuter[o], i)
	}
	g := in.graph()
	outerKeys := sortedKeys(byOuter)

	// Lay out each outer group in local coordinates first.
	local := make(Positions, in.N)
	outerRegions := make([]region, len(outerKeys))
	for k, o := range outerKeys {
		byInner := make(map[string][]int)
		for _, id := range byOuter[o] {
			byInner[inner[id]] = append(byInner[inner[id]], id)
		}
		innerKeys := sortedKeys(byInner)
		regions := make([]region, len(innerKeys))
		for j, key := range innerKeys {
			regions[j] = placeMembers(g, in, byInner[key], o+"/"+key, opts)
		}
		radius := compose(regions, opts, r2.Vec{}, local)

		ids := byOuter[o]
		pts := make([]r2.Vec, len(ids))
		for i, id := range ids {
			pts[i] = local[id]
		}
		outerRegions[k] = region{members: ids, local: pts, radius: radius}
	}
	compose(outerRegions, opts, r2.Vec{}, pos)
	return pos, nil
}

// groupValues returns one group per node for a nesting level. An empty
// column name falls back to the hierarchy level of the same depth. Empty
// values become [PlaceholderGroup].
func (in Input) groupValues(column string, level int) ([]string, error) {
	var src []string
	switch {
	case column != "":
		col, ok := in.Groups[column]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown group column %q", column)
		}
		src = col
	case level < in.Hierarchy.Depth():
		src = in.Hierarchy.Levels[level].Labels
	}
	out := make([]string, in.N)
	for i := range out {
		if src == nil || src[i] == "" {
			out[i] = PlaceholderGroup(level)
			continue
		}
		out[i] = src[i]
	}
	return out, nil
}
