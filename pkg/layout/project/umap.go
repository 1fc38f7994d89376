package project

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	umapEpochs    = 200
	umapNegatives = 5
	umapClip      = 4.0
	umapInitScale = 10.0
)

type fuzzyEdge struct {
	i, j int
	w    float64
}

// UMAP embeds dist with a UMAP-style optimisation. The layout starts from
// [MDS] so the seed only drives negative sampling.
func UMAP(dist *mat.Dense, opts Options) *mat.Dense {
	n := size(dist)
	if out, ok := trivial(n); ok {
		return out
	}
	def := DefaultOptions()
	k := opts.Neighbors
	if k <= 0 {
		k = def.Neighbors
	}
	k = min(k, n-1)
	minDist := opts.MinDist
	if minDist <= 0 {
		minDist = def.MinDist
	}
	epochs := opts.Iterations
	if epochs <= 0 {
		epochs = umapEpochs
	}

	edges := fuzzyGraph(dist, k)
	a, b := fitCurve(minDist)
	rng := newRand(opts.Seed)

	y := MDS(dist)
	var far float64
	for i := range n {
		far = max(far, math.Abs(y.At(i, 0)), math.Abs(y.At(i, 1)))
	}
	for i := range n {
		for c := range 2 {
			v := rng.NormFloat64() * 1e-4
			if far > 0 {
				v += y.At(i, c) * umapInitScale / far
			}
			y.Set(i, c, v)
		}
	}

	var wmax float64
	for _, e := range edges {
		wmax = max(wmax, e.w)
	}
	period := make([]float64, len(edges))
	next := make([]float64, len(edges))
	for x, e := range edges {
		period[x] = wmax / e.w
		next[x] = period[x]
	}

	diff := make([]float64, 2)
	for epoch := range epochs {
		alpha := 1 - float64(epoch)/float64(epochs)
		for x, e := range edges {
			if next[x] > float64(epoch+1) {
				continue
			}
			next[x] += period[x]

			d2 := delta(y, e.i, e.j, diff)
			if d2 > 0 {
				gc := -2 * a * b * math.Pow(d2, b-1) / (1 + a*math.Pow(d2, b))
				for c := range 2 {
					g := clip(gc*diff[c]) * alpha
					y.Set(e.i, c, y.At(e.i, c)+g)
					y.Set(e.j, c, y.At(e.j, c)-g)
				}
			}

			for range umapNegatives {
				o := rng.IntN(n)
				if o == e.i {
					continue
				}
				d2 := delta(y, e.i, o, diff)
				for c := range 2 {
					g := umapClip
					if d2 > 0 {
						gc := 2 * b / ((0.001 + d2) * (1 + a*math.Pow(d2, b)))
						g = clip(gc * diff[c])
					}
					y.Set(e.i, c, y.At(e.i, c)+g*alpha)
				}
			}
		}
	}
	center(y)
	return y
}

func delta(y *mat.Dense, i, j int, diff []float64) float64 {
	var d2 float64
	for c := range 2 {
		diff[c] = y.At(i, c) - y.At(j, c)
		d2 += diff[c] * diff[c]
	}
	return d2
}

func clip(v float64) float64 {
	return max(min(v, umapClip), -umapClip)
}

// fuzzyGraph returns the symmetrised fuzzy k-nearest-neighbour edges,
// sorted by (i, j).
func fuzzyGraph(dist *mat.Dense, k int) []fuzzyEdge {
	n := size(dist)
	target := math.Log2(float64(k))
	weights := make(map[[2]int]float64)

	for i := range n {
		others := make([]int, 0, n-1)
		for j := range n {
			if j != i {
				others = append(others, j)
			}
		}
		slices.SortFunc(others, func(a, b int) int {
			if c := cmp.Compare(dist.At(i, a), dist.At(i, b)); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		nbrs := others[:k]

		var rho float64
		for _, j := range nbrs {
			if d := dist.At(i, j); d > 0 {
				rho = d
				break
			}
		}

		sigma, lo, hi := 1.0, 0.0, math.Inf(1)
		for range 64 {
			var sum float64
			for _, j := range nbrs {
				sum += math.Exp(-max(dist.At(i, j)-rho, 0) / sigma)
			}
			if math.Abs(sum-target) < 1e-5 {
				break
			}
			if sum > target {
				hi = sigma
				sigma = (lo + hi) / 2
			} else {
				lo = sigma
				if math.IsInf(hi, 1) {
					sigma *= 2
				} else {
					sigma = (lo + hi) / 2
				}
			}
		}
		sigma = max(sigma, 1e-3)

		for _, j := range nbrs {
			w := math.Exp(-max(dist.At(i, j)-rho, 0) / sigma)
			key := [2]int{min(i, j), max(i, j)}
			if old, ok := weights[key]; ok {
				w = old + w - old*w
			}
			weights[key] = w
		}
	}

	edges := make([]fuzzyEdge, 0, len(weights))
	for key, w := range weights {
		if w > 0 {
			edges = append(edges, fuzzyEdge{i: key[0], j: key[1], w: w})
		}
	}
	slices.SortFunc(edges, func(a, b fuzzyEdge) int {
		if c := cmp.Compare(a.i, b.i); c != 0 {
			return c
		}
		return cmp.Compare(a.j, b.j)
	})
	return edges
}

// fitCurve fits the low-dimensional kernel 1/(1+a·d^(2b)) to a unit-spread
// offset exponential with the given minimum distance.
func fitCurve(minDist float64) (a, b float64) {
	const samples = 300
	xs := make([]float64, samples)
	ys := make([]float64, samples)
	for s := range samples {
		x := 3 * float64(s+1) / samples
		xs[s] = x
		ys[s] = 1
		if x > minDist {
			ys[s] = math.Exp(-(x - minDist))
		}
	}
	loss := func(p []float64) float64 {
		a, b := math.Abs(p[0]), math.Abs(p[1])
		var sum float64
		for s, x := range xs {
			r := 1/(1+a*math.Pow(x, 2*b)) - ys[s]
			sum += r * r
		}
		return sum
	}
	a, b = 1.577, 0.895
	res, err := optimize.Minimize(optimize.Problem{Func: loss}, []float64{a, b}, nil, &optimize.NelderMead{})
	if err != nil || res == nil {
		return a, b
	}
	return math.Abs(res.X[0]), math.Abs(res.X[1])
}
