package project

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	tsneIterations   = 500
	tsneExaggeration = 12.0
	tsneTolerance    = 1e-5
)

// TSNE embeds the n×n distance matrix dist with exact t-SNE. Perplexity is
// clamped to (n-1)/3 so small inputs stay well posed.
func TSNE(dist *mat.Dense, opts Options) *mat.Dense {
	n := size(dist)
	if out, ok := trivial(n); ok {
		return out
	}
	iters := opts.Iterations
	if iters <= 0 {
		iters = tsneIterations
	}
	perp := opts.Perplexity
	if perp <= 0 {
		perp = DefaultOptions().Perplexity
	}
	perp = max(min(perp, float64(n-1)/3), 1)

	p := affinities(dist, perp)
	rng := newRand(opts.Seed)

	y := mat.NewDense(n, 2, nil)
	for i := range n {
		y.Set(i, 0, rng.NormFloat64()*1e-4)
		y.Set(i, 1, rng.NormFloat64()*1e-4)
	}
	gains := mat.NewDense(n, 2, nil)
	for i := range n {
		gains.SetRow(i, []float64{1, 1})
	}
	update := mat.NewDense(n, 2, nil)
	grad := mat.NewDense(n, 2, nil)
	num := mat.NewDense(n, n, nil)

	lr := max(float64(n)/tsneExaggeration, 50)
	exagIters := min(100, iters/4)

	for it := range iters {
		var sumQ float64
		for i := range n {
			for j := i + 1; j < n; j++ {
				dx, dy := y.At(i, 0)-y.At(j, 0), y.At(i, 1)-y.At(j, 1)
				q := 1 / (1 + dx*dx + dy*dy)
				num.Set(i, j, q)
				num.Set(j, i, q)
				sumQ += 2 * q
			}
		}
		sumQ = max(sumQ, 1e-12)

		exag := 1.0
		if it < exagIters {
			exag = tsneExaggeration
		}
		for i := range n {
			var gx, gy float64
			for j := range n {
				if i == j {
					continue
				}
				q := num.At(i, j)
				m := 4 * (exag*p.At(i, j) - q/sumQ) * q
				gx += m * (y.At(i, 0) - y.At(j, 0))
				gy += m * (y.At(i, 1) - y.At(j, 1))
			}
			grad.Set(i, 0, gx)
			grad.Set(i, 1, gy)
		}

		momentum := 0.5
		if it >= exagIters {
			momentum = 0.8
		}
		for i := range n {
			for k := range 2 {
				g, u, gain := grad.At(i, k), update.At(i, k), gains.At(i, k)
				if (g > 0) != (u > 0) {
					gain += 0.2
				} else {
					gain *= 0.8
				}
				gain = max(gain, 0.01)
				u = momentum*u - lr*gain*g
				gains.Set(i, k, gain)
				update.Set(i, k, u)
				y.Set(i, k, y.At(i, k)+u)
			}
		}
		center(y)
	}
	return y
}

// affinities returns the symmetric joint probabilities of t-SNE. Each row's
// Gaussian bandwidth is found by bisection so its entropy matches
// log(perplexity).
func affinities(dist *mat.Dense, perplexity float64) *mat.Dense {
	n := size(dist)
	target := math.Log(perplexity)
	cond := mat.NewDense(n, n, nil)
	row := make([]float64, n)

	for i := range n {
		beta, lo, hi := 1.0, math.Inf(-1), math.Inf(1)
		for range 50 {
			var sum, weighted float64
			for j := range n {
				row[j] = 0
				if j == i {
					continue
				}
				d := dist.At(i, j)
				row[j] = math.Exp(-d * d * beta)
				sum += row[j]
				weighted += d * d * row[j]
			}
			sum = max(sum, 1e-12)
			h := math.Log(sum) + beta*weighted/sum
			for j := range n {
				row[j] /= sum
			}
			diff := h - target
			if math.Abs(diff) < tsneTolerance {
				break
			}
			if diff > 0 {
				lo = beta
				if math.IsInf(hi, 1) {
					beta *= 2
				} else {
					beta = (beta + hi) / 2
				}
			} else {
				hi = beta
				if math.IsInf(lo, -1) {
					beta /= 2
				} else {
					beta = (beta + lo) / 2
				}
			}
		}
		cond.SetRow(i, row)
	}

	p := mat.NewDense(n, n, nil)
	p.Add(cond, cond.T())
	total := mat.Sum(p)
	p.Apply(func(_, _ int, v float64) float64 { return max(v/total, 1e-12) }, p)
	for i := range n {
		p.Set(i, i, 0)
	}
	return p
}

// center subtracts the column means of y.
func center(y *mat.Dense) {
	n, c := y.Dims()
	for k := range c {
		col := mat.Col(nil, k, y)
		var mean float64
		for _, v := range col {
			mean += v
		}
		mean /= float64(n)
		for i := range n {
			y.Set(i, k, col[i]-mean)
		}
	}
}
