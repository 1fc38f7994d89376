package community

import (
	"cmp"
	"slices"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/graph"
)

const (
	// minGain is the smallest modularity improvement that keeps a level
	// running.
	minGain = 1e-7

	// moveEpsilon absorbs floating point noise when comparing move gains.
	moveEpsilon = 1e-12
)

type louvainDetector struct{}

func (louvainDetector) Detect(g *graph.Graph, opts Options) (Hierarchy, error) {
	if err := opts.ValidateResolution(); err != nil {
		return Hierarchy{}, err
	}
	if opts.Level < LevelAll {
		return Hierarchy{}, errors.New(errors.ErrCodeInvalidConfig, "invalid dendrogram level %d", opts.Level)
	}
	logger := opts.logger()
	if len(opts.Resolution) > 1 {
		logger.Warn("louvain uses only the first resolution", "resolution", opts.Resolution)
	}

	dendrogram, err := Louvain(g, opts.Resolution[0])
	if err != nil {
		return Hierarchy{}, err
	}

	var partitions [][]int
	switch opts.Level {
	case LevelAll:
		for l := len(dendrogram) - 1; l >= 0; l-- {
			partitions = append(partitions, dendrogram.Partition(l))
		}
	case LevelBest:
		partitions = [][]int{dendrogram.Partition(len(dendrogram) - 1)}
	default:
		l := min(opts.Level, len(dendrogram)-1)
		if l != opts.Level {
			logger.Debug("dendrogram level clamped", "requested", opts.Level, "used", l)
		}
		partitions = [][]int{dendrogram.Partition(l)}
	}

	var mergeReport *MergeReport
	if opts.Merge.Enabled && g.Len() > 0 {
		top := flatLabels(g.Len(), groups(partitions[0]))
		merged, report, err := Merge(top, opts.Similarity, opts.Merge)
		if err != nil {
			return Hierarchy{}, err
		}
		logger.Debug("merged small clusters", "merges", len(report.Merges))
		partitions[0] = membershipOf(merged)
		mergeReport = &report
	}

	h := nest(partitions)
	h.Merge = mergeReport
	logger.Debug("louvain complete",
		"dendrogram_levels", len(dendrogram),
		"levels", h.Depth(),
		"clusters", len(groups(partitions[0])))
	return h, nil
}

// membershipOf converts labels to integer community ids.
func membershipOf(labels []string) []int {
	ids := make(map[string]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := ids[l]
		if !ok {
			id = len(ids)
			ids[l] = id
		}
		out[i] = id
	}
	return out
}

// =============================================================================
// Dendrogram
// =============================================================================

// Dendrogram records one mapping per Louvain level: Dendrogram[l][v] is the
// community at level l+1 of node v at level l. Level 0 nodes are row ids.
type Dendrogram [][]int

// Partition returns the community of every row id after applying levels
// 0..level.
func (d Dendrogram) Partition(level int) []int {
	if len(d) == 0 {
		return nil
	}
	part := slices.Clone(d[0])
	for l := 1; l <= level; l++ {
		for i, c := range part {
			part[i] = d[l][c]
		}
	}
	return part
}

// =============================================================================
// Louvain
// =============================================================================

type arc struct {
	to int
	w  float64
}

// arcGraph is the working multigraph of one Louvain level. Undirected input
// is stored as two opposite arcs per edge so that one code path serves both.
type arcGraph struct {
	n         int
	out, in   [][]arc
	kOut, kIn []float64
	m         float64
}

func newArcGraph(n int) *arcGraph {
	return &arcGraph{
		n:    n,
		out:  make([][]arc, n),
		in:   make([][]arc, n),
		kOut: make([]float64, n),
		kIn:  make([]float64, n),
	}
}

func (a *arcGraph) add(u, v int, w float64) {
	a.out[u] = append(a.out[u], arc{v, w})
	a.in[v] = append(a.in[v], arc{u, w})
	a.kOut[u] += w
	a.kIn[v] += w
	a.m += w
}

func arcsFrom(g *graph.Graph) (*arcGraph, error) {
	a := newArcGraph(g.Len())
	for _, e := range g.Edges() {
		if e.Weight < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"negative edge weight %v on %d→%d", e.Weight, e.Source, e.Target)
		}
		if e.Weight == 0 {
			continue
		}
		a.add(e.Source, e.Target, e.Weight)
		if !g.Directed() && e.Source != e.Target {
			a.add(e.Target, e.Source, e.Weight)
		}
	}
	return a, nil
}

// Louvain runs directed-aware Louvain modularity optimisation at the given
// resolution and returns the dendrogram. Nodes are visited in id order and
// ties between equal gains keep the current community, or else pick the
// lowest community id, so the result is deterministic.
func Louvain(g *graph.Graph, resolution float64) (Dendrogram, error) {
	a, err := arcsFrom(g)
	if err != nil {
		return nil, err
	}
	if a.n == 0 {
		return Dendrogram{{}}, nil
	}

	var d Dendrogram
	for {
		comm := make([]int, a.n)
		for i := range comm {
			comm[i] = i
		}
		improved := a.m > 0 && a.moveNodes(comm, resolution)
		comm, k := compact(comm)
		if !improved || k == a.n {
			if len(d) == 0 {
				d = append(d, comm)
			}
			return d, nil
		}
		d = append(d, comm)
		a = a.aggregate(comm, k)
	}
}

// moveNodes runs full local-moving passes until a pass improves modularity
// by less than minGain. It reports whether any node changed community.
func (a *arcGraph) moveNodes(comm []int, gamma float64) bool {
	sigOut := slices.Clone(a.kOut)
	sigIn := slices.Clone(a.kIn)
	weightTo := make([]float64, a.n)
	var touched []int

	m, m2 := a.m, a.m*a.m
	gain := func(i, c int) float64 {
		return weightTo[c]/m - gamma*(a.kOut[i]*sigIn[c]+a.kIn[i]*sigOut[c])/m2
	}

	anyMoved := false
	q := a.modularity(comm, gamma)
	for {
		moved := false
		for i := range a.n {
			old := comm[i]

			touched = touched[:0]
			collect := func(arcs []arc) {
				for _, e := range arcs {
					if e.to == i {
						continue
					}
					c := comm[e.to]
					if weightTo[c] == 0 {
						touched = append(touched, c)
					}
					weightTo[c] += e.w
				}
			}
			collect(a.out[i])
			collect(a.in[i])

			sigOut[old] -= a.kOut[i]
			sigIn[old] -= a.kIn[i]

			best, bestGain := old, gain(i, old)
			slices.Sort(touched)
			for _, c := range slices.Compact(touched) {
				if c == old {
					continue
				}
				if g := gain(i, c); g > bestGain+moveEpsilon {
					best, bestGain = c, g
				}
			}

			sigOut[best] += a.kOut[i]
			sigIn[best] += a.kIn[i]
			comm[i] = best
			if best != old {
				moved = true
				anyMoved = true
			}

			for _, c := range touched {
				weightTo[c] = 0
			}
		}
		if !moved {
			return anyMoved
		}
		next := a.modularity(comm, gamma)
		if next-q < minGain {
			return anyMoved
		}
		q = next
	}
}

// modularity scores comm on the working graph with the directed null model.
func (a *arcGraph) modularity(comm []int, gamma float64) float64 {
	if a.m == 0 {
		return 0
	}
	inside := make(map[int]float64)
	sOut := make(map[int]float64)
	sIn := make(map[int]float64)
	for u := range a.n {
		cu := comm[u]
		sOut[cu] += a.kOut[u]
		sIn[cu] += a.kIn[u]
		for _, e := range a.out[u] {
			if comm[e.to] == cu {
				inside[cu] += e.w
			}
		}
	}
	var q float64
	for c, so := range sOut {
		q += inside[c]/a.m - gamma*so*sIn[c]/(a.m*a.m)
	}
	return q
}

// aggregate contracts each community to one node; arc weights between
// communities are summed and internal arcs become self loops.
func (a *arcGraph) aggregate(comm []int, k int) *arcGraph {
	type key struct{ u, v int }
	sum := make(map[key]float64)
	for u := range a.n {
		for _, e := range a.out[u] {
			sum[key{comm[u], comm[e.to]}] += e.w
		}
	}
	keys := make([]key, 0, len(sum))
	for kk := range sum {
		keys = append(keys, kk)
	}
	slices.SortFunc(keys, func(x, y key) int {
		if c := cmp.Compare(x.u, y.u); c != 0 {
			return c
		}
		return cmp.Compare(x.v, y.v)
	})
	next := newArcGraph(k)
	for _, kk := range keys {
		next.add(kk.u, kk.v, sum[kk])
	}
	return next
}

// compact renumbers community ids to 0..k-1 in order of first appearance.
func compact(comm []int) ([]int, int) {
	ids := make(map[int]int)
	out := make([]int, len(comm))
	for i, c := range comm {
		id, ok := ids[c]
		if !ok {
			id = len(ids)
			ids[c] = id
		}
		out[i] = id
	}
	return out, len(ids)
}
