package sparsify

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/graph"
)

// randomSimilarity returns a symmetric matrix with a zero diagonal and
// entries in [0,1), with roughly a third of the entries set to zero.
func randomSimilarity(n int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	m := mat.NewDense(n, n, nil)
	for i := range n {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < 0.33 {
				continue
			}
			v := rng.Float64()
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
	return m
}

func outDegrees(n int, edges []graph.Edge) []int {
	deg := make([]int, n)
	for _, e := range edges {
		deg[e.Source]++
	}
	return deg
}

func TestThresholdKeepsOneOutEdge(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		n := 40
		sim := randomSimilarity(n, seed)
		res := Threshold(sim, Options{LinksPerNode: 1, RepairPairs: true})

		deg := outDegrees(n, res.Edges)
		for i := range n {
			hasPositive := false
			for j := range n {
				if sim.At(i, j) > 0 {
					hasPositive = true
				}
			}
			if hasPositive && deg[i] == 0 {
				t.Errorf("seed %d: node %d lost all out-edges", seed, i)
			}
		}
		for _, e := range res.Edges {
			if e.Source == e.Target {
				t.Errorf("seed %d: self edge on %d", seed, e.Source)
			}
		}
	}
}

func TestThresholdBudget(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		links float64
	}{
		{"OneLink", 50, 1},
		{"FourLinks", 50, 4},
		{"FractionalLinks", 30, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := randomSimilarity(tt.n, 7)
			// Flatten the matrix so the floor keeps many edges.
			sim.Apply(func(i, j int, v float64) float64 {
				if v > 0 {
					return 0.5
				}
				return 0
			}, sim)
			res := Threshold(sim, Options{LinksPerNode: tt.links})

			limit := max(float64(tt.n), tt.links*float64(tt.n))
			// Per-row rounding may add at most half an edge per row.
			if got := float64(len(res.Edges)); got > limit+float64(tt.n)/2 {
				t.Errorf("edges = %v, want <= %v", got, limit)
			}
			if !res.Budgeted {
				t.Error("expected budget thinning to run")
			}
		})
	}
}

func TestThresholdAllZero(t *testing.T) {
	res := Threshold(mat.NewDense(5, 5, nil), DefaultOptions())
	if len(res.Edges) != 0 {
		t.Errorf("edges = %v, want none", res.Edges)
	}
	if res := Threshold(&mat.Dense{}, DefaultOptions()); len(res.Edges) != 0 {
		t.Error("empty matrix should yield no edges")
	}
}

func TestThresholdTwoBlocks(t *testing.T) {
	n := 10
	sim := mat.NewDense(n, n, nil)
	for i := range n {
		for j := range n {
			if i != j && (i < 5) == (j < 5) {
				sim.Set(i, j, 1)
			}
		}
	}
	res := Threshold(sim, Options{LinksPerNode: 4, RepairPairs: true})

	g := graph.MustNew(n, res.Edges, true)
	if comps := g.Components(); len(comps) != 2 {
		t.Errorf("components = %v, want 2", comps)
	}
	if res.Threshold != 1 {
		t.Errorf("Threshold = %v, want 1", res.Threshold)
	}
}

func TestThresholdSortedOutput(t *testing.T) {
	res := Threshold(randomSimilarity(25, 3), Options{LinksPerNode: 2, RepairPairs: true})
	for i := 1; i < len(res.Edges); i++ {
		a, b := res.Edges[i-1], res.Edges[i]
		if a.Source > b.Source || (a.Source == b.Source && a.Target >= b.Target) {
			t.Fatalf("edges not sorted at %d: %v then %v", i, a, b)
		}
	}
}

// isolatedPair builds 20 nodes: 0..17 form a dense block at 0.9, nodes 18
// and 19 are each other's strongest match at 0.8 with weak links into the
// block.
func isolatedPair() *mat.Dense {
	n := 20
	sim := mat.NewDense(n, n, nil)
	set := func(i, j int, v float64) {
		sim.Set(i, j, v)
		sim.Set(j, i, v)
	}
	for i := range 18 {
		for j := i + 1; j < 18; j++ {
			set(i, j, 0.9)
		}
	}
	set(18, 19, 0.8)
	set(18, 3, 0.1)
	set(19, 7, 0.2)
	set(19, 8, 0.05)
	return sim
}

func TestIsolatedPairRepair(t *testing.T) {
	sim := isolatedPair()

	without := Threshold(sim, Options{LinksPerNode: 1, RepairPairs: false})
	g := graph.MustNew(20, without.Edges, true)
	pairIsolated := false
	for _, c := range g.Components() {
		if len(c) == 2 && c[0] == 18 && c[1] == 19 {
			pairIsolated = true
		}
	}
	if !pairIsolated {
		t.Fatalf("expected 18-19 to be a detached pair without repair, got %v", g.Components())
	}

	with := Threshold(sim, Options{LinksPerNode: 1, RepairPairs: true})
	if with.Repaired != 1 {
		t.Errorf("Repaired = %d, want 1", with.Repaired)
	}
	g = graph.MustNew(20, with.Edges, true)
	for _, c := range g.Components() {
		if len(c) == 2 {
			t.Errorf("pair still detached: %v", c)
		}
	}
	if w, ok := g.Weight(18, 3); !ok || w != 0.1 {
		t.Errorf("edge 18→3 = %v, %v; want 0.1", w, ok)
	}
	if w, ok := g.Weight(19, 7); !ok || w != 0.2 {
		t.Errorf("edge 19→7 = %v, %v; want 0.2", w, ok)
	}
}
