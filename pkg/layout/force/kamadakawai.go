package force

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// KKOptions tunes [KamadaKawai].
type KKOptions struct {
	// Epsilon stops the solver once no node's energy gradient exceeds it.
	Epsilon float64
	// MaxSteps bounds the number of node moves. Zero means 30 per node,
	// at most 10000.
	MaxSteps int
}

const (
	// maxNewton bounds the Newton iterations spent on one node per move.
	maxNewton    = 32
	stepsPerNode = 30
	maxSteps     = 10000
)

// DefaultKKOptions returns the solver defaults.
func DefaultKKOptions() KKOptions {
	return KKOptions{Epsilon: 1e-4}
}

// KamadaKawai lays out n nodes so that Euclidean distance approximates
// dist, a symmetric matrix of positive graph distances. Nodes start on a
// circle in index order, so the result is deterministic.
func KamadaKawai(dist [][]float64, opts KKOptions) []r2.Vec {
	n := len(dist)
	pos := make([]r2.Vec, n)
	switch n {
	case 0:
		return pos
	case 1:
		return pos
	case 2:
		pos[0], pos[1] = r2.Vec{X: -1}, r2.Vec{X: 1}
		return pos
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultKKOptions().Epsilon
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = min(stepsPerNode*n, maxSteps)
	}

	var diameter float64
	for i := range n {
		for j := range n {
			diameter = max(diameter, dist[i][j])
		}
	}
	if diameter == 0 {
		diameter = 1
	}

	// Target lengths l and spring strengths k on a unit-diameter scale.
	l := make([][]float64, n)
	k := make([][]float64, n)
	for i := range n {
		l[i] = make([]float64, n)
		k[i] = make([]float64, n)
		for j := range n {
			if i == j {
				continue
			}
			d := dist[i][j]
			if d <= 0 {
				d = diameter
			}
			l[i][j] = d / diameter
			k[i][j] = 1 / (d * d)
		}
	}

	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		pos[i] = r2.Vec{X: 0.5 * math.Cos(a), Y: 0.5 * math.Sin(a)}
	}

	// pull is the energy gradient on i from its spring to j.
	pull := func(i, j int, pi, pj r2.Vec) r2.Vec {
		dx, dy := pi.X-pj.X, pi.Y-pj.Y
		d := math.Max(math.Hypot(dx, dy), 1e-9)
		return r2.Vec{X: k[i][j] * (dx - l[i][j]*dx/d), Y: k[i][j] * (dy - l[i][j]*dy/d)}
	}
	// local returns the gradient and Hessian of the energy at node m.
	local := func(m int) (g r2.Vec, hxx, hxy, hyy float64) {
		for i := range n {
			if i == m {
				continue
			}
			g = r2.Add(g, pull(m, i, pos[m], pos[i]))
			dx, dy := pos[m].X-pos[i].X, pos[m].Y-pos[i].Y
			d := math.Max(math.Hypot(dx, dy), 1e-9)
			d3 := d * d * d
			hxx += k[m][i] * (1 - l[m][i]*dy*dy/d3)
			hxy += k[m][i] * l[m][i] * dx * dy / d3
			hyy += k[m][i] * (1 - l[m][i]*dx*dx/d3)
		}
		return g, hxx, hxy, hyy
	}

	grad := make([]r2.Vec, n)
	for i := range n {
		for j := range n {
			if i != j {
				grad[i] = r2.Add(grad[i], pull(i, j, pos[i], pos[j]))
			}
		}
	}

	for range opts.MaxSteps {
		m, worst := -1, opts.Epsilon
		for i, g := range grad {
			if norm := r2.Norm(g); norm > worst {
				m, worst = i, norm
			}
		}
		if m < 0 {
			break
		}

		// Newton-Raphson on m alone until its gradient settles.
		old := pos[m]
		for range maxNewton {
			g, hxx, hxy, hyy := local(m)
			grad[m] = g
			if r2.Norm(g) <= opts.Epsilon {
				break
			}
			det := hxx*hyy - hxy*hxy
			if math.Abs(det) < 1e-12 {
				pos[m] = r2.Sub(pos[m], r2.Scale(0.1, g))
				continue
			}
			pos[m] = r2.Vec{
				X: pos[m].X - (hyy*g.X-hxy*g.Y)/det,
				Y: pos[m].Y - (hxx*g.Y-hxy*g.X)/det,
			}
		}
		grad[m], _, _, _ = local(m)

		// Only m's springs changed, so every other gradient needs one term swapped.
		for i := range n {
			if i == m {
				continue
			}
			grad[i] = r2.Add(r2.Sub(grad[i], pull(i, m, pos[i], old)), pull(i, m, pos[i], pos[m]))
		}
	}
	return Normalize(pos)
}

// Normalize centres pos on its centroid and scales it so the farthest point
// is at distance one. Coincident points all map to the origin.
func Normalize(pos []r2.Vec) []r2.Vec {
	if len(pos) == 0 {
		return pos
	}
	var c r2.Vec
	for _, p := range pos {
		c = r2.Add(c, p)
	}
	c = r2.Scale(1/float64(len(pos)), c)
	var far float64
	for _, p := range pos {
		far = max(far, r2.Norm(r2.Sub(p, c)))
	}
	out := make([]r2.Vec, len(pos))
	for i, p := range pos {
		if far > 0 {
			out[i] = r2.Scale(1/far, r2.Sub(p, c))
		}
	}
	return out
}
