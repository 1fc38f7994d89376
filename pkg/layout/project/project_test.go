package project

import (
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/errors"
)

// twoGroups returns distances for two groups of size k that are 1 apart
// inside and far apart across.
func twoGroups(k int, far float64) *mat.Dense {
	n := 2 * k
	d := mat.NewDense(n, n, nil)
	for i := range n {
		for j := range n {
			switch {
			case i == j:
			case i/k == j/k:
				d.Set(i, j, 1)
			default:
				d.Set(i, j, far)
			}
		}
	}
	return d
}

func separated(t *testing.T, y *mat.Dense, k int) {
	t.Helper()
	var intra, inter float64
	var ni, nx int
	n, _ := y.Dims()
	for i := range n {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(y.At(i, 0)-y.At(j, 0), y.At(i, 1)-y.At(j, 1))
			if i/k == j/k {
				intra += d
				ni++
			} else {
				inter += d
				nx++
			}
		}
	}
	intra /= float64(ni)
	inter /= float64(nx)
	if intra >= inter {
		t.Errorf("groups not separated: mean intra %v >= mean inter %v", intra, inter)
	}
}

func TestTrivial(t *testing.T) {
	for _, method := range []string{MethodTSNE, MethodUMAP} {
		t.Run(method, func(t *testing.T) {
			for n := range 3 {
				d := &mat.Dense{}
				if n > 0 {
					d = mat.NewDense(n, n, nil)
				}
				y, err := Project(method, d, DefaultOptions())
				if err != nil {
					t.Fatal(err)
				}
				if n == 0 {
					if !y.IsEmpty() {
						t.Errorf("n=0: got non-empty result")
					}
					continue
				}
				if r, c := y.Dims(); r != n || c != 2 {
					t.Errorf("n=%d: dims %dx%d", n, r, c)
				}
			}
		})
	}
}

func TestProjectUnknown(t *testing.T) {
	_, err := Project("isomap", mat.NewDense(3, 3, nil), DefaultOptions())
	if !errors.Is(err, errors.ErrCodeUnknownLayout) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeUnknownLayout)
	}
}

func TestTSNE(t *testing.T) {
	d := twoGroups(6, 5)
	opts := DefaultOptions()
	opts.Iterations = 300
	y := TSNE(d, opts)
	separated(t, y, 6)

	again := TSNE(d, opts)
	if !slices.Equal(y.RawMatrix().Data, again.RawMatrix().Data) {
		t.Error("same seed gave different embeddings")
	}
}

func TestUMAP(t *testing.T) {
	d := twoGroups(8, 5)
	opts := DefaultOptions()
	opts.Neighbors = 5
	opts.Iterations = 100
	y := UMAP(d, opts)
	separated(t, y, 8)

	again := UMAP(d, opts)
	if !slices.Equal(y.RawMatrix().Data, again.RawMatrix().Data) {
		t.Error("same seed gave different embeddings")
	}
}

func TestMDS(t *testing.T) {
	tests := []struct {
		name string
		pts  [][2]float64
	}{
		{"line", [][2]float64{{0, 0}, {1, 0}, {3, 0}}},
		{"square", [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		{"triangle", [][2]float64{{0, 0}, {4, 0}, {1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Planar points are recovered up to rigid motion.
			n := len(tt.pts)
			d := mat.NewDense(n, n, nil)
			for i := range n {
				for j := range n {
					d.Set(i, j, math.Hypot(tt.pts[i][0]-tt.pts[j][0], tt.pts[i][1]-tt.pts[j][1]))
				}
			}
			y := MDS(d)
			if r, c := y.Dims(); r != n || c != 2 {
				t.Fatalf("dims = %dx%d, want %dx2", r, c, n)
			}
			for i := range n {
				for j := range n {
					got := math.Hypot(y.At(i, 0)-y.At(j, 0), y.At(i, 1)-y.At(j, 1))
					if math.Abs(got-d.At(i, j)) > 1e-6 {
						t.Errorf("distance(%d,%d) = %v, want %v", i, j, got, d.At(i, j))
					}
				}
			}
		})
	}
}

func TestFitCurve(t *testing.T) {
	a, b := fitCurve(0.1)
	if math.Abs(a-1.577) > 0.1 || math.Abs(b-0.895) > 0.05 {
		t.Errorf("fitCurve(0.1) = (%v, %v), want about (1.577, 0.895)", a, b)
	}
}
