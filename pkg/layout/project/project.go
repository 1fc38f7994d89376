package project

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"
)

// FromRows copies a square [][]float64 into a *mat.Dense.
func FromRows(rows [][]float64) *mat.Dense {
	n := len(rows)
	if n == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(n, n, nil)
	for i, row := range rows {
		d.SetRow(i, row)
	}
	return d
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
}

func size(dist *mat.Dense) int {
	if dist == nil || dist.IsEmpty() {
		return 0
	}
	n, _ := dist.Dims()
	return n
}

// trivial handles inputs too small to optimise.
func trivial(n int) (*mat.Dense, bool) {
	switch n {
	case 0:
		return &mat.Dense{}, true
	case 1:
		return mat.NewDense(1, 2, nil), true
	case 2:
		return mat.NewDense(2, 2, []float64{-1, 0, 1, 0}), true
	}
	return nil, false
}

// MDS returns the classical multidimensional scaling of dist in two
// dimensions. Missing dimensions (fewer than two positive eigenvalues) are
// zero.
func MDS(dist *mat.Dense) *mat.Dense {
	n := size(dist)
	if out, ok := trivial(n); ok {
		return out
	}
	sym := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(dist.At(i, j)+dist.At(j, i)))
		}
	}

	out := mat.NewDense(n, 2, nil)
	var coords mat.Dense
	k, _ := mds.TorgersonScaling(&coords, nil, sym)
	for c := range min(k, 2) {
		for i := range n {
			out.Set(i, c, coords.At(i, c))
		}
	}
	return out
}
