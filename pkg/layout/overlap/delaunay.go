package overlap

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Edge is an undirected pair of point indices with I < J.
type Edge struct{ I, J int }

type triangle struct {
	a, b, c int
	center  r2.Vec
	r2      float64
}

func newTriangle(pts []r2.Vec, a, b, c int) triangle {
	t := triangle{a: a, b: b, c: c}
	t.center, t.r2 = circumcircle(pts[a], pts[b], pts[c])
	return t
}

func circumcircle(a, b, c r2.Vec) (r2.Vec, float64) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if d == 0 {
		return r2.Vec{}, math.Inf(1)
	}
	a2, b2, c2 := r2.Norm2(a), r2.Norm2(b), r2.Norm2(c)
	center := r2.Vec{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}
	return center, r2.Norm2(r2.Sub(a, center))
}

func (t triangle) contains(p r2.Vec) bool {
	if math.IsInf(t.r2, 1) {
		return true
	}
	return r2.Norm2(r2.Sub(p, t.center)) < t.r2
}

func (t triangle) edges() [3]Edge {
	return [3]Edge{mkEdge(t.a, t.b), mkEdge(t.b, t.c), mkEdge(t.c, t.a)}
}

func mkEdge(i, j int) Edge {
	if i > j {
		i, j = j, i
	}
	return Edge{i, j}
}

// Triangulate returns the Delaunay edges of points, sorted. Exact duplicates
// are linked to their first occurrence, and collinear input falls back to a
// chain through the points sorted by (x, y). The result always connects all
// points.
func Triangulate(points []r2.Vec) []Edge {
	n := len(points)
	if n < 2 {
		return nil
	}

	edges := make(map[Edge]bool)
	first := make(map[r2.Vec]int, n)
	var unique []int
	for i, p := range points {
		if j, ok := first[p]; ok {
			edges[mkEdge(j, i)] = true
			continue
		}
		first[p] = i
		unique = append(unique, i)
	}

	switch {
	case len(unique) < 2:
	case len(unique) == 2 || collinear(points, unique):
		for _, e := range chain(points, unique) {
			edges[e] = true
		}
	default:
		for _, e := range bowyerWatson(points, unique) {
			edges[e] = true
		}
		if !connected(n, edges, unique) {
			for _, e := range chain(points, unique) {
				edges[e] = true
			}
		}
	}

	out := make([]Edge, 0, len(edges))
	for e := range edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Edge) int {
		if c := cmp.Compare(a.I, b.I); c != 0 {
			return c
		}
		return cmp.Compare(a.J, b.J)
	})
	return out
}

func bowyerWatson(points []r2.Vec, idx []int) []Edge {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, i := range idx {
		p := points[i]
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	span := max(maxX-minX, maxY-minY, 1e-9)
	mid := r2.Vec{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}

	// Working point set: the input plus three super-triangle vertices.
	n := len(points)
	pts := append(slices.Clone(points),
		r2.Vec{X: mid.X - 20*span, Y: mid.Y - span},
		r2.Vec{X: mid.X, Y: mid.Y + 20*span},
		r2.Vec{X: mid.X + 20*span, Y: mid.Y - span},
	)
	tris := []triangle{newTriangle(pts, n, n+1, n+2)}

	for _, p := range idx {
		var bad, keep []triangle
		for _, t := range tris {
			if t.contains(pts[p]) {
				bad = append(bad, t)
			} else {
				keep = append(keep, t)
			}
		}
		count := make(map[Edge]int)
		for _, t := range bad {
			for _, e := range t.edges() {
				count[e]++
			}
		}
		boundary := make([]Edge, 0, len(count))
		for e, c := range count {
			if c == 1 {
				boundary = append(boundary, e)
			}
		}
		slices.SortFunc(boundary, func(a, b Edge) int {
			if c := cmp.Compare(a.I, b.I); c != 0 {
				return c
			}
			return cmp.Compare(a.J, b.J)
		})
		for _, e := range boundary {
			keep = append(keep, newTriangle(pts, e.I, e.J, p))
		}
		tris = keep
	}

	var out []Edge
	for _, t := range tris {
		if t.a >= n || t.b >= n || t.c >= n {
			continue
		}
		for _, e := range t.edges() {
			out = append(out, e)
		}
	}
	return out
}

func collinear(points []r2.Vec, idx []int) bool {
	a, b := points[idx[0]], points[idx[1]]
	ab := r2.Sub(b, a)
	scale := max(r2.Norm(ab), 1e-12)
	for _, i := range idx[2:] {
		if math.Abs(r2.Cross(ab, r2.Sub(points[i], a)))/scale > 1e-9*scale {
			return false
		}
	}
	return true
}

func chain(points []r2.Vec, idx []int) []Edge {
	order := slices.Clone(idx)
	slices.SortFunc(order, func(i, j int) int {
		if c := cmp.Compare(points[i].X, points[j].X); c != 0 {
			return c
		}
		if c := cmp.Compare(points[i].Y, points[j].Y); c != 0 {
			return c
		}
		return cmp.Compare(i, j)
	})
	edges := make([]Edge, 0, len(order))
	for k := 1; k < len(order); k++ {
		edges = append(edges, mkEdge(order[k-1], order[k]))
	}
	return edges
}

// connected reports whether the unique points are joined by edges.
func connected(n int, edges map[Edge]bool, idx []int) bool {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for e := range edges {
		parent[find(e.I)] = find(e.J)
	}
	root := find(idx[0])
	for _, i := range idx[1:] {
		if find(i) != root {
			return false
		}
	}
	return true
}
