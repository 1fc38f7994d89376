package overlap

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultMaxIter caps the number of resolver iterations.
const DefaultMaxIter = 10

// Circle is a disc to be kept apart from its neighbours. ID only orders
// roots and ties; it need not be dense.
type Circle struct {
	ID     int     `json:"id"`
	Center r2.Vec  `json:"center"`
	Radius float64 `json:"radius"`
}

// Report is the outcome of [Resolve].
type Report struct {
	Circles []Circle `json:"circles"`

	// Iterations counts accepted iterations.
	Iterations int `json:"iterations"`

	// Debt holds the overlap debt before the first iteration and after
	// every accepted one. It is non-increasing.
	Debt []float64 `json:"debt"`

	// RolledBack is set when the last attempted iteration raised the debt
	// and was undone.
	RolledBack bool `json:"rolled_back,omitempty"`
}

// Final returns the last recorded debt.
func (r Report) Final() float64 {
	if len(r.Debt) == 0 {
		return 0
	}
	return r.Debt[len(r.Debt)-1]
}

// Debt returns the summed overlap (1-f)(r1+r2) - dist over triangulation
// neighbours that are too close.
func Debt(circles []Circle, overlapFrac float64) float64 {
	var debt float64
	for _, e := range Triangulate(centers(circles)) {
		if w := gap(circles[e.I], circles[e.J], overlapFrac); w < 0 {
			debt -= w
		}
	}
	return debt
}

// gap is the edge weight dist - (1-f)(r1+r2); negative means overlap.
func gap(a, b Circle, overlapFrac float64) float64 {
	return r2.Norm(r2.Sub(b.Center, a.Center)) - (1-overlapFrac)*(a.Radius+b.Radius)
}

func centers(circles []Circle) []r2.Vec {
	pts := make([]r2.Vec, len(circles))
	for i, c := range circles {
		pts[i] = c.Center
	}
	return pts
}

// Resolve pushes overlapping circles apart. overlapFrac is the fraction of
// the radius sum two neighbours may overlap by; maxIter <= 0 uses
// [DefaultMaxIter]. The input slice is not modified.
func Resolve(circles []Circle, overlapFrac float64, maxIter int) Report {
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	cur := slices.Clone(circles)
	rep := Report{Circles: cur, Debt: []float64{Debt(cur, overlapFrac)}}
	if len(cur) < 2 {
		return rep
	}

	for range maxIter {
		if rep.Final() == 0 {
			break
		}
		next := step(cur, overlapFrac)
		debt := Debt(next, overlapFrac)
		if debt > rep.Final() {
			rep.RolledBack = true
			break
		}
		cur = next
		rep.Circles = cur
		rep.Iterations++
		rep.Debt = append(rep.Debt, debt)
	}
	return rep
}

// step runs one spanning-tree pass and returns the moved circles.
func step(circles []Circle, overlapFrac float64) []Circle {
	n := len(circles)
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range n {
		g.AddNode(simple.Node(i))
	}
	for _, e := range Triangulate(centers(circles)) {
		w := gap(circles[e.I], circles[e.J], overlapFrac)
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(e.I), simple.Node(e.J), w))
	}

	mst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(mst, g)

	adj := make([][]int, n)
	for i := range n {
		for _, v := range graph.NodesOf(mst.From(int64(i))) {
			adj[i] = append(adj[i], int(v.ID()))
		}
		slices.SortFunc(adj[i], func(a, b int) int { return cmp.Compare(circles[a].ID, circles[b].ID) })
	}

	out := slices.Clone(circles)
	visited := make([]bool, n)
	for _, root := range roots(circles, adj) {
		if visited[root] {
			continue
		}
		walk(out, circles, adj, visited, root, overlapFrac)
	}
	return out
}

// roots orders candidate roots: leaves first, each group by circle id.
// Isolated nodes count as leaves.
func roots(circles []Circle, adj [][]int) []int {
	order := make([]int, len(circles))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		la, lb := len(adj[a]) <= 1, len(adj[b]) <= 1
		if la != lb {
			if la {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(circles[a].ID, circles[b].ID); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return order
}

// walk visits the tree from root breadth first. Each node carries the
// offset accumulated by its ancestors, so moving a child moves its subtree.
func walk(out, orig []Circle, adj [][]int, visited []bool, root int, overlapFrac float64) {
	offset := make(map[int]r2.Vec)
	visited[root] = true
	queue := []int{root}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, c := range adj[p] {
			if visited[c] {
				continue
			}
			visited[c] = true
			off := offset[p]
			pos := r2.Add(orig[c].Center, off)
			d := r2.Sub(pos, out[p].Center)
			dist := r2.Norm(d)
			need := (1 - overlapFrac) * (orig[c].Radius + out[p].Radius)
			if dist < need {
				dir := direction(d, dist, orig[c].ID)
				off = r2.Add(off, r2.Scale(need-dist, dir))
			}
			offset[c] = off
			out[c].Center = r2.Add(orig[c].Center, off)
			queue = append(queue, c)
		}
	}
}

// direction returns the unit vector along d, or a fixed per-id direction for
// coincident centres.
func direction(d r2.Vec, dist float64, id int) r2.Vec {
	if dist > 0 {
		return r2.Scale(1/dist, d)
	}
	const golden = 2.399963229728653 // golden angle
	a := golden * float64(id+1)
	return r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
}
