package layout

import (
	"math"
	"slices"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/graph"
	"github.com/matzehuels/landscape/pkg/layout/force"
)

// =============================================================================
// Compression
// =============================================================================

// Compress recentres pos on its centroid and rescales every distance d from
// it to V·d/(V+d), with V = maxExpansion × median(d). Outliers approach V
// instead of inflating the radius. It returns the compressed points and
// their largest distance from the origin.
func Compress(pos []r2.Vec, maxExpansion float64) ([]r2.Vec, float64) {
	out := make([]r2.Vec, len(pos))
	if len(pos) == 0 {
		return out, 0
	}
	c := centroid(pos)
	dist := make([]float64, len(pos))
	for i, p := range pos {
		out[i] = r2.Sub(p, c)
		dist[i] = r2.Norm(out[i])
	}
	v := maxExpansion * median(dist)
	var radius float64
	for i, d := range dist {
		if v <= 0 || d == 0 {
			radius = max(radius, d)
			continue
		}
		nd := v * d / (v + d)
		out[i] = r2.Scale(nd/d, out[i])
		radius = max(radius, nd)
	}
	return out, radius
}

func centroid(pos []r2.Vec) r2.Vec {
	var c r2.Vec
	for _, p := range pos {
		c = r2.Add(c, p)
	}
	return r2.Scale(1/float64(len(pos)), c)
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}

// medianPoint is the component-wise median of the given points.
func medianPoint(pos []r2.Vec, ids []int) r2.Vec {
	xs := make([]float64, len(ids))
	ys := make([]float64, len(ids))
	for i, id := range ids {
		xs[i], ys[i] = pos[id].X, pos[id].Y
	}
	return r2.Vec{X: median(xs), Y: median(ys)}
}

func scale(pos []r2.Vec, f float64) {
	for i := range pos {
		pos[i] = r2.Scale(f, pos[i])
	}
}

// fitRMS converts an n×2 embedding to points centred on the origin whose
// root-mean-square radius is target.
func fitRMS(y *mat.Dense, target float64) []r2.Vec {
	if y == nil || y.IsEmpty() {
		return nil
	}
	n, _ := y.Dims()
	pos := make([]r2.Vec, n)
	for i := range n {
		pos[i] = r2.Vec{X: y.At(i, 0), Y: y.At(i, 1)}
	}
	c := centroid(pos)
	var ss float64
	for i := range pos {
		pos[i] = r2.Sub(pos[i], c)
		ss += r2.Norm2(pos[i])
	}
	if rms := math.Sqrt(ss / float64(n)); rms > 0 {
		scale(pos, target/rms)
	}
	return pos
}

// =============================================================================
// Cluster subgraphs
// =============================================================================

// bridge links every smaller connected component of g to the largest one:
// each component's highest-degree node gets an edge to the largest
// component's highest-degree node.
func bridge(g *graph.Graph, label string, logger *log.Logger) *graph.Graph {
	comps := g.Components()
	if len(comps) <= 1 {
		return g
	}
	hub := func(c []int) int {
		best := c[0]
		for _, id := range c[1:] {
			if g.Degree(id) > g.Degree(best) {
				best = id
			}
		}
		return best
	}
	target := hub(comps[0])
	extra := make([]graph.Edge, 0, len(comps)-1)
	for _, c := range comps[1:] {
		extra = append(extra, graph.Edge{Source: hub(c), Target: target, Weight: 1})
	}
	logger.Debug("bridged disconnected cluster",
		"cluster", label, "components", len(comps),
		"err", errors.New(errors.ErrCodeDisconnectedCluster, "cluster %s has %d components", label, len(comps)))
	bridged, err := g.WithEdges(extra...)
	if err != nil {
		return g
	}
	return bridged
}

// localLayout runs Kamada-Kawai over the bridged subgraph induced by
// members. The result is indexed like members, centred, with radius one.
func localLayout(g *graph.Graph, members []int, label string, logger *log.Logger) []r2.Vec {
	sub, _ := g.Subgraph(members)
	sub = bridge(sub, label, logger)
	return force.KamadaKawai(sub.HopDistances(max(len(members), 1)), force.DefaultKKOptions())
}

// =============================================================================
// Rotation
// =============================================================================

// Rotate turns pos about its centroid so that the first principal axis lies
// at the given angle in degrees. Fewer than two points are returned as is.
func Rotate(pos Positions, degrees float64) Positions {
	ids := pos.IDs()
	if len(ids) < 2 {
		return pos
	}
	x := mat.NewDense(len(ids), 2, nil)
	pts := make([]r2.Vec, len(ids))
	for i, id := range ids {
		pts[i] = pos[id]
		x.Set(i, 0, pts[i].X)
		x.Set(i, 1, pts[i].Y)
	}
	var pc stat.PC
	if !pc.PrincipalComponents(x, nil) {
		return pos
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	ax, ay := vecs.At(0, 0), vecs.At(1, 0)
	if ax < 0 || (ax == 0 && ay < 0) {
		ax, ay = -ax, -ay
	}
	alpha := degrees*math.Pi/180 - math.Atan2(ay, ax)
	sin, cos := math.Sincos(alpha)

	c := centroid(pts)
	out := make(Positions, len(pos))
	for i, id := range ids {
		d := r2.Sub(pts[i], c)
		out[id] = r2.Add(c, r2.Vec{X: d.X*cos - d.Y*sin, Y: d.X*sin + d.Y*cos})
	}
	return out
}
