package community

import (
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/graph"
)

// cliques returns k disjoint cliques of the given size, optionally joined in
// a ring by one weak edge between consecutive cliques.
func cliques(k, size int, ring bool, directed bool) *graph.Graph {
	var edges []graph.Edge
	for c := range k {
		base := c * size
		for i := range size {
			for j := range size {
				if i != j && (directed || i < j) {
					edges = append(edges, graph.Edge{Source: base + i, Target: base + j, Weight: 1})
				}
			}
		}
		if ring && k > 1 {
			next := ((c + 1) % k) * size
			edges = append(edges, graph.Edge{Source: base, Target: next, Weight: 0.1})
		}
	}
	return graph.MustNew(k*size, edges, directed)
}

// randomGraph returns a sparse random graph with positive weights.
func randomGraph(n int, p float64, directed bool, seed uint64) *graph.Graph {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	var edges []graph.Edge
	for i := range n {
		for j := range n {
			if i == j || (!directed && j < i) {
				continue
			}
			if rng.Float64() < p {
				edges = append(edges, graph.Edge{Source: i, Target: j, Weight: 0.1 + rng.Float64()})
			}
		}
	}
	return graph.MustNew(n, edges, directed)
}

// samePartition reports whether two labelings group nodes identically.
func samePartition(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ab := make(map[string]string)
	ba := make(map[string]string)
	for i := range a {
		if x, ok := ab[a[i]]; ok && x != b[i] {
			return false
		}
		if y, ok := ba[b[i]]; ok && y != a[i] {
			return false
		}
		ab[a[i]] = b[i]
		ba[b[i]] = a[i]
	}
	return true
}

func checkPartition(t *testing.T, labels []string, n int) {
	t.Helper()
	if len(labels) != n {
		t.Fatalf("got %d labels, want %d", len(labels), n)
	}
	for i, l := range labels {
		if l == "" {
			t.Errorf("node %d has no label", i)
		}
	}
}

func TestNewDetector(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{MethodLouvain, false},
		{MethodLeiden, false},
		{"spectral", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			_, err := NewDetector(tt.method)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeUnknownMethod) {
					t.Errorf("error = %v, want CONFIG_UNKNOWN_METHOD", err)
				}
				return
			}
			if err != nil {
				t.Errorf("NewDetector(%q) error = %v", tt.method, err)
			}
		})
	}
}

func TestValidateResolution(t *testing.T) {
	tests := []struct {
		name     string
		res      []float64
		minSizes []int
		wantErr  bool
	}{
		{"Scalar", []float64{1}, nil, false},
		{"List", []float64{1, 2}, []int{5}, false},
		{"Empty", nil, nil, true},
		{"NonPositive", []float64{1, 0}, []int{5}, true},
		{"MissingMinSizes", []float64{1, 2}, nil, true},
		{"ZeroMinSize", []float64{1, 2}, []int{0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Method: MethodLeiden, Resolution: tt.res, MinSizes: tt.minSizes}
			err := opts.ValidateResolution()
			if tt.wantErr != (err != nil) {
				t.Fatalf("ValidateResolution() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidResolution) {
				t.Errorf("error code = %v", errors.GetCode(err))
			}
			if _, err := Detect(cliques(2, 4, false, false), opts); tt.wantErr && err == nil {
				t.Error("Detect() should reject the resolution list")
			}
		})
	}
}

// =============================================================================
// Louvain
// =============================================================================

func TestLouvainTwoBlocks(t *testing.T) {
	for _, directed := range []bool{false, true} {
		g := cliques(2, 5, false, directed)
		h, err := Detect(g, DefaultOptions())
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		want := []string{"0", "0", "0", "0", "0", "1", "1", "1", "1", "1"}
		if got := h.Top(); !slices.Equal(got, want) {
			t.Errorf("directed=%v: labels = %v, want %v", directed, got, want)
		}
	}
}

func TestLouvainRingOfCliques(t *testing.T) {
	g := cliques(6, 5, true, false)
	h, err := Detect(g, DefaultOptions())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	sizes := h.Levels[0].Sizes()
	if len(sizes) != 6 {
		t.Fatalf("clusters = %v, want 6", sizes)
	}
	for lab, s := range sizes {
		if s != 5 {
			t.Errorf("cluster %s has %d members, want 5", lab, s)
		}
	}
}

func TestLouvainDeterministic(t *testing.T) {
	for _, directed := range []bool{false, true} {
		g := randomGraph(60, 0.08, directed, 11)
		opts := DefaultOptions()
		opts.Level = LevelAll

		a, err := Detect(g, opts)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		b, _ := Detect(g, opts)
		if a.Depth() != b.Depth() {
			t.Fatalf("depth differs: %d vs %d", a.Depth(), b.Depth())
		}
		for d := range a.Levels {
			if !slices.Equal(a.Levels[d].Labels, b.Levels[d].Labels) {
				t.Errorf("directed=%v: level %d differs between runs", directed, d)
			}
		}
	}
}

func TestLouvainLevels(t *testing.T) {
	g := randomGraph(80, 0.05, false, 5)

	d, err := Louvain(g, 1)
	if err != nil {
		t.Fatalf("Louvain() error = %v", err)
	}
	if len(d) == 0 {
		t.Fatal("empty dendrogram")
	}

	opts := DefaultOptions()
	opts.Level = LevelAll
	h, err := Detect(g, opts)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if h.Depth() != len(d) {
		t.Errorf("Depth() = %d, want %d", h.Depth(), len(d))
	}
	if err := h.Validate(g.Len()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	// Level 0 is finest; it must be at least as fine as the coarsest.
	opts.Level = 0
	fine, _ := Detect(g, opts)
	opts.Level = LevelBest
	coarse, _ := Detect(g, opts)
	if len(fine.Levels[0].Sizes()) < len(coarse.Levels[0].Sizes()) {
		t.Error("finest level has fewer clusters than the coarsest")
	}

	opts.Level = 99
	clamped, err := Detect(g, opts)
	if err != nil || !samePartition(clamped.Top(), coarse.Top()) {
		t.Error("out-of-range level should clamp to the coarsest")
	}
}

func TestLouvainEdgeCases(t *testing.T) {
	t.Run("NoEdges", func(t *testing.T) {
		h, err := Detect(graph.MustNew(4, nil, true), DefaultOptions())
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if got := h.Top(); !slices.Equal(got, []string{"0", "1", "2", "3"}) {
			t.Errorf("labels = %v", got)
		}
	})
	t.Run("Empty", func(t *testing.T) {
		h, err := Detect(graph.MustNew(0, nil, true), DefaultOptions())
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if len(h.Top()) != 0 {
			t.Errorf("labels = %v", h.Top())
		}
	})
	t.Run("NegativeWeight", func(t *testing.T) {
		g := graph.MustNew(2, []graph.Edge{{Source: 0, Target: 1, Weight: -1}}, true)
		if _, err := Detect(g, DefaultOptions()); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("error = %v, want INVALID_INPUT", err)
		}
	})
}

// =============================================================================
// Modularity
// =============================================================================

func gonumCommunities(labels []string) [][]gonum.Node {
	byLabel := Level{Labels: labels}.Members()
	var out [][]gonum.Node
	for _, lab := range sortedKeys(byLabel) {
		var comm []gonum.Node
		for _, id := range byLabel[lab] {
			comm = append(comm, simple.Node(id))
		}
		out = append(out, comm)
	}
	return out
}

func TestModularityMatchesGonum(t *testing.T) {
	for _, directed := range []bool{false, true} {
		for seed := uint64(1); seed <= 3; seed++ {
			g := randomGraph(40, 0.1, directed, seed)
			h, err := Detect(g, DefaultOptions())
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			for _, gamma := range []float64{0.5, 1, 2} {
				ours, err := Modularity(g, h.Top(), gamma)
				if err != nil {
					t.Fatalf("Modularity() error = %v", err)
				}
				theirs := community.Q(g.Gonum(), gonumCommunities(h.Top()), gamma)
				if math.Abs(ours-theirs) > 1e-9 {
					t.Errorf("directed=%v seed=%d γ=%v: Q = %v, gonum Q = %v",
						directed, seed, gamma, ours, theirs)
				}
			}
		}
	}
}

func TestLouvainImprovesModularity(t *testing.T) {
	g := randomGraph(50, 0.1, true, 9)
	h, _ := Detect(g, DefaultOptions())

	singletons := make([]string, g.Len())
	for i := range singletons {
		singletons[i] = strings.Repeat("x", i+1)
	}
	base, _ := Modularity(g, singletons, 1)
	got, _ := Modularity(g, h.Top(), 1)
	if got <= base {
		t.Errorf("Q = %v, want > singleton Q %v", got, base)
	}
}

// =============================================================================
// Leiden
// =============================================================================

func TestLeidenValidPartition(t *testing.T) {
	for _, directed := range []bool{false, true} {
		g := randomGraph(70, 0.06, directed, 21)
		opts := Options{Method: MethodLeiden, Resolution: []float64{1}}
		h, err := Detect(g, opts)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		checkPartition(t, h.Top(), g.Len())

		// Every cluster is connected in the undirected view.
		for lab, members := range h.Levels[0].Members() {
			sub, _ := g.Subgraph(members)
			if comps := sub.Components(); len(comps) != 1 {
				t.Errorf("directed=%v: cluster %s has %d components", directed, lab, len(comps))
			}
		}
	}
}

func TestLeidenHierarchy(t *testing.T) {
	g := cliques(4, 6, true, false)
	// Add a tiny detached pair that falls under the size minimum.
	edges := append(slices.Clone(g.Edges()), graph.Edge{Source: 24, Target: 25, Weight: 1})
	g = graph.MustNew(26, edges, false)

	opts := Options{
		Method:     MethodLeiden,
		Resolution: []float64{0.5, 2},
		MinSizes:   []int{3},
	}
	h, err := Detect(g, opts)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if h.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", h.Depth())
	}
	if err := h.Validate(g.Len()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	top, sub := h.Levels[0].Labels, h.Levels[1].Labels
	for i := range top {
		if !strings.HasPrefix(sub[i], top[i]+"_") {
			t.Errorf("node %d: %q is not prefixed by %q", i, sub[i], top[i])
		}
	}
	// The pair is below the minimum and collapses to one "_0" child.
	if top[24] != top[25] {
		t.Fatalf("pair split at top level: %q %q", top[24], top[25])
	}
	if sub[24] != top[24]+"_0" || sub[25] != sub[24] {
		t.Errorf("pair children = %q %q, want %q", sub[24], sub[25], top[24]+"_0")
	}
}

// =============================================================================
// Hierarchy
// =============================================================================

func TestColumnName(t *testing.T) {
	tests := []struct {
		depth int
		want  string
	}{
		{0, "Cluster"},
		{1, "Cluster_L2"},
		{2, "Cluster_L3"},
	}
	for _, tt := range tests {
		if got := ColumnName(tt.depth); got != tt.want {
			t.Errorf("ColumnName(%d) = %q, want %q", tt.depth, got, tt.want)
		}
	}
}

func TestNestRenumbersBySize(t *testing.T) {
	h := nest([][]int{
		{7, 7, 3, 3, 3, 9},
		{1, 2, 4, 4, 5, 6},
	})
	if got := h.Levels[0].Labels; !slices.Equal(got, []string{"1", "1", "0", "0", "0", "2"}) {
		t.Errorf("level 0 = %v", got)
	}
	if got := h.Levels[1].Labels; !slices.Equal(got, []string{"1_0", "1_1", "0_0", "0_0", "0_1", "2_0"}) {
		t.Errorf("level 1 = %v", got)
	}
	if err := h.Validate(6); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestCompareLabels(t *testing.T) {
	labels := []string{"10", "2", "2_10", "2_3", "1"}
	sortLabels(labels)
	want := []string{"1", "2", "2_3", "2_10", "10"}
	if !slices.Equal(labels, want) {
		t.Errorf("sorted = %v, want %v", labels, want)
	}
}

// =============================================================================
// Merge
// =============================================================================

// blockSimilarity sets sim(i,j) = v for every pair with labels (a, b).
func blockSimilarity(labels []string, pairs map[[2]string]float64) *mat.Dense {
	n := len(labels)
	sim := mat.NewDense(n, n, nil)
	for i := range n {
		for j := range n {
			if i == j {
				continue
			}
			if v, ok := pairs[[2]string{labels[i], labels[j]}]; ok {
				sim.Set(i, j, v)
			} else if v, ok := pairs[[2]string{labels[j], labels[i]}]; ok {
				sim.Set(i, j, v)
			}
		}
	}
	return sim
}

func repeat(label string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = label
	}
	return out
}

func TestMergeChain(t *testing.T) {
	// a(1) → b(4) → c(20): a must end up in c.
	var labels []string
	labels = append(labels, repeat("c", 20)...)
	labels = append(labels, repeat("b", 4)...)
	labels = append(labels, "a")
	sim := blockSimilarity(labels, map[[2]string]float64{
		{"a", "b"}: 0.9,
		{"a", "c"}: 0.1,
		{"b", "c"}: 0.5,
	})

	out, report, err := Merge(labels, sim, MergeOptions{Enabled: true, SizeRatio: 3, TopN: 2})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	for i, l := range out {
		if l != "0" {
			t.Fatalf("node %d label %q, want everything in cluster 0", i, l)
		}
	}
	if len(report.Merges) != 2 {
		t.Fatalf("merges = %v, want 2", report.Merges)
	}
	if report.Merges[0].From != "a" || report.Merges[1].From != "b" {
		t.Errorf("merge order = %v, want a then b", report.Merges)
	}
	if c := report.Candidates["a"]; len(c) != 2 || c[0].Target != "b" {
		t.Errorf("candidates for a = %v", c)
	}
}

func TestMergeConstraints(t *testing.T) {
	var labels []string
	labels = append(labels, repeat("big", 10)...)
	labels = append(labels, repeat("mid", 3)...)
	labels = append(labels, "s")

	tests := []struct {
		name  string
		opts  MergeOptions
		pairs map[[2]string]float64
		want  map[string]bool // clusters that survive
	}{
		{
			name:  "NoSimilarity",
			opts:  MergeOptions{SizeRatio: 2, TopN: 3},
			pairs: nil,
			want:  map[string]bool{"big": true, "mid": true, "s": true},
		},
		{
			name:  "MaxSizeExcludesBig",
			opts:  MergeOptions{SizeRatio: 2, TopN: 3, MaxSize: 5},
			pairs: map[[2]string]float64{{"s", "big"}: 0.9, {"s", "mid"}: 0.2, {"mid", "big"}: 0.4},
			want:  map[string]bool{"big": true, "mid": true},
		},
		{
			name:  "RatioTooStrict",
			opts:  MergeOptions{SizeRatio: 20, TopN: 3},
			pairs: map[[2]string]float64{{"s", "big"}: 0.9},
			want:  map[string]bool{"big": true, "mid": true, "s": true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := blockSimilarity(labels, tt.pairs)
			out, _, err := Merge(labels, sim, tt.opts)
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if got := len(Level{Labels: out}.Sizes()); got != len(tt.want) {
				t.Errorf("clusters after merge = %d, want %d (%v)", got, len(tt.want), out)
			}
		})
	}
}

func TestMergeTieBreakIsDeterministic(t *testing.T) {
	// Two equally similar, equally sized targets: the lower label wins.
	var labels []string
	labels = append(labels, repeat("1", 5)...)
	labels = append(labels, repeat("0", 5)...)
	labels = append(labels, "2")
	sim := blockSimilarity(labels, map[[2]string]float64{
		{"2", "0"}: 0.5,
		{"2", "1"}: 0.5,
	})
	_, report, err := Merge(labels, sim, MergeOptions{SizeRatio: 2, TopN: 2})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(report.Merges) != 1 || report.Merges[0].To != "0" {
		t.Errorf("merges = %v, want 2→0", report.Merges)
	}
}

func TestMergeRequiresSimilarity(t *testing.T) {
	_, _, err := Merge([]string{"0", "1"}, nil, DefaultMergeOptions())
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestDetectWithMerge(t *testing.T) {
	// A 6-clique, a 2-clique, and a similarity matrix tying them together.
	g := graph.MustNew(8, append(cliques(1, 6, false, false).Edges(),
		graph.Edge{Source: 6, Target: 7, Weight: 1}), false)
	labels := []string{"a", "a", "a", "a", "a", "a", "b", "b"}
	sim := blockSimilarity(labels, map[[2]string]float64{{"a", "a"}: 1, {"b", "b"}: 1, {"a", "b"}: 0.3})

	for _, method := range []string{MethodLouvain, MethodLeiden} {
		opts := DefaultOptions()
		opts.Method = method
		opts.Merge = MergeOptions{Enabled: true, SizeRatio: 2, TopN: 1}
		opts.Similarity = sim
		h, err := Detect(g, opts)
		if err != nil {
			t.Fatalf("%s: Detect() error = %v", method, err)
		}
		if got := len(h.Levels[0].Sizes()); got != 1 {
			t.Errorf("%s: clusters = %d, want 1 after merge", method, got)
		}
	}
}
