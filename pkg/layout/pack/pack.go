// Package pack places circles tightly without overlap.
//
// Circles are placed largest first along a front chain: the closed loop of
// circles on the outside of the packing. Each new circle is set tangent to
// the front pair nearest the origin. Front circles it would overlap are cut
// from the chain and the placement is retried. The result is recentred on its
// enclosing circle.
package pack

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

const eps = 1e-6

// Result is a packed arrangement.
type Result struct {
	// Centers are indexed like the input radii.
	Centers []r2.Vec `json:"centers"`

	// Radius of the enclosing circle, which is centred on the origin.
	Radius float64 `json:"radius"`
}

// Pack packs circles with the given radii. Negative radii are treated as
// zero.
func Pack(radii []float64) Result {
	n := len(radii)
	res := Result{Centers: make([]r2.Vec, n)}
	if n == 0 {
		return res
	}
	r := make([]float64, n)
	for i, x := range radii {
		r[i] = max(x, 0)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(r[b], r[a]) })

	c := res.Centers
	if n > 1 {
		a, b := order[0], order[1]
		c[a] = r2.Vec{X: -r[b]}
		c[b] = r2.Vec{X: r[a]}
	}
	if n > 2 {
		packFront(c, r, order)
	}

	center, radius := enclose(c, r)
	for i := range c {
		c[i] = r2.Sub(c[i], center)
	}
	res.Radius = radius
	return res
}

// =============================================================================
// Front Chain
// =============================================================================

// front is a circular doubly linked list over circle indices.
type front struct {
	next, prev []int
}

func (f *front) link(a, b int) {
	f.next[a], f.prev[b] = b, a
}

// packFront places order[2:] given the first two circles.
func packFront(c []r2.Vec, r []float64, order []int) {
	f := &front{next: make([]int, len(c)), prev: make([]int, len(c))}
	a, b, x := order[0], order[1], order[2]
	c[x] = place(c[b], r[b], c[a], r[a], r[x])
	f.link(a, b)
	f.link(b, x)
	f.link(x, a)

	for _, x := range order[3:] {
		for {
			c[x] = place(c[a], r[a], c[b], r[b], r[x])
			hit, after := f.collision(c, r, a, b, x)
			if hit < 0 {
				break
			}
			if after {
				b = hit
			} else {
				a = hit
			}
			f.link(a, b)
		}
		f.link(a, x)
		f.link(x, b)
		a = f.closest(c, r, a)
		b = f.next[a]
	}
}

// collision walks the front outwards from the pair (a, b), always extending
// the shorter side, and returns the first circle overlapping x. after
// reports whether it was found past b. hit is -1 when x is clear.
func (f *front) collision(c []r2.Vec, r []float64, a, b, x int) (hit int, after bool) {
	j, k := f.next[b], f.prev[a]
	sj, sk := r[b], r[a]
	for {
		if sj <= sk {
			if intersects(c[j], r[j], c[x], r[x]) {
				return j, true
			}
			sj += r[j]
			j = f.next[j]
		} else {
			if intersects(c[k], r[k], c[x], r[x]) {
				return k, false
			}
			sk += r[k]
			k = f.prev[k]
		}
		if j == f.next[k] {
			return -1, false
		}
	}
}

// closest returns the front circle whose pair with its successor has the
// weighted midpoint nearest the origin.
func (f *front) closest(c []r2.Vec, r []float64, start int) int {
	best, bestD := start, f.score(c, r, start)
	for y := f.next[start]; y != start; y = f.next[y] {
		if d := f.score(c, r, y); d < bestD {
			best, bestD = y, d
		}
	}
	return best
}

func (f *front) score(c []r2.Vec, r []float64, i int) float64 {
	j := f.next[i]
	ab := r[i] + r[j]
	if ab == 0 {
		return r2.Norm2(r2.Scale(0.5, r2.Add(c[i], c[j])))
	}
	return r2.Norm2(r2.Scale(1/ab, r2.Add(r2.Scale(r[j], c[i]), r2.Scale(r[i], c[j]))))
}

// place returns a centre for a circle of radius rc tangent to the circles
// at p and q, on the left of the direction from q to p.
func place(p r2.Vec, rp float64, q r2.Vec, rq, rc float64) r2.Vec {
	d := r2.Sub(p, q)
	d2 := r2.Norm2(d)
	if d2 == 0 {
		return r2.Vec{X: q.X + rc, Y: q.Y}
	}
	a2 := (rq + rc) * (rq + rc)
	b2 := (rp + rc) * (rp + rc)
	if a2 > b2 {
		x := (d2 + b2 - a2) / (2 * d2)
		y := math.Sqrt(max(0, b2/d2-x*x))
		return r2.Vec{X: p.X - x*d.X - y*d.Y, Y: p.Y - x*d.Y + y*d.X}
	}
	x := (d2 + a2 - b2) / (2 * d2)
	y := math.Sqrt(max(0, a2/d2-x*x))
	return r2.Vec{X: q.X + x*d.X - y*d.Y, Y: q.Y + x*d.Y + y*d.X}
}

func intersects(p r2.Vec, rp float64, q r2.Vec, rq float64) bool {
	dr := rp + rq - eps
	return dr > 0 && dr*dr > r2.Norm2(r2.Sub(q, p))
}

// enclose returns a centre and a radius covering every circle. The centre is
// the midpoint of the bounding box.
func enclose(centers []r2.Vec, r []float64) (r2.Vec, float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, c := range centers {
		minX, maxX = min(minX, c.X-r[i]), max(maxX, c.X+r[i])
		minY, maxY = min(minY, c.Y-r[i]), max(maxY, c.Y+r[i])
	}
	mid := r2.Vec{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
	var radius float64
	for i, c := range centers {
		radius = max(radius, r2.Norm(r2.Sub(c, mid))+r[i])
	}
	return mid, radius
}
