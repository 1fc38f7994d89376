package sparsify

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/graph"
)

// DefaultLinksPerNode is the default target average out-degree.
const DefaultLinksPerNode = 4

// Options controls [Threshold].
type Options struct {
	// LinksPerNode is the target average number of edges per node (L).
	LinksPerNode float64 `json:"links_per_node" toml:"links_per_node" yaml:"links_per_node" validate:"gt=0"`

	// RepairPairs reconnects isolated reciprocal pairs.
	RepairPairs bool `json:"repair_pairs" toml:"repair_pairs" yaml:"repair_pairs"`
}

// DefaultOptions returns the baseline sparsifier configuration.
func DefaultOptions() Options {
	return Options{LinksPerNode: DefaultLinksPerNode, RepairPairs: true}
}

// Result is the sparsified graph.
type Result struct {
	Edges     []graph.Edge `json:"edges"`     // sorted by (source, target)
	Threshold float64      `json:"threshold"` // connectivity floor
	Budgeted  bool         `json:"budgeted"`  // whether per-row thinning ran
	Repaired  int          `json:"repaired"`  // isolated pairs reconnected
}

// Threshold sparsifies a square similarity matrix. The diagonal is ignored.
// An all-zero matrix yields no edges.
func Threshold(sim *mat.Dense, opts Options) Result {
	if sim == nil || sim.IsEmpty() {
		return Result{}
	}
	n, _ := sim.Dims()

	threshold, ok := floor(sim)
	if !ok {
		return Result{}
	}

	rows := make([][]graph.Edge, n)
	total := 0
	for i := range n {
		for j := range n {
			if w := sim.At(i, j); i != j && w > 0 && w >= threshold {
				rows[i] = append(rows[i], graph.Edge{Source: i, Target: j, Weight: w})
			}
		}
		total += len(rows[i])
	}

	res := Result{Threshold: threshold}
	budget := float64(n) * opts.LinksPerNode
	if float64(total) > budget {
		res.Budgeted = true
		f := budget / float64(total)
		for i, row := range rows {
			if len(row) == 0 {
				continue
			}
			keep := max(int(math.Round(f*float64(len(row)))), 1)
			rows[i] = strongest(row, keep)
		}
	}

	if opts.RepairPairs {
		res.Repaired = repairPairs(sim, rows)
	}

	for _, row := range rows {
		res.Edges = append(res.Edges, row...)
	}
	graph.SortEdges(res.Edges)
	return res
}

// floor returns the smallest positive row maximum.
func floor(sim *mat.Dense) (float64, bool) {
	n, _ := sim.Dims()
	threshold := math.Inf(1)
	found := false
	for i := range n {
		rowMax := 0.0
		for j := range n {
			if i != j && sim.At(i, j) > rowMax {
				rowMax = sim.At(i, j)
			}
		}
		if rowMax > 0 {
			threshold = min(threshold, rowMax)
			found = true
		}
	}
	return threshold, found
}

// byStrength orders edges by descending weight, then ascending target.
func byStrength(a, b graph.Edge) int {
	if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
		return c
	}
	return cmp.Compare(a.Target, b.Target)
}

// strongest returns the k highest-weight edges of a row.
func strongest(row []graph.Edge, k int) []graph.Edge {
	sorted := slices.Clone(row)
	slices.SortFunc(sorted, byStrength)
	return sorted[:min(k, len(sorted))]
}

// repairPairs finds pairs whose only surviving neighbour is each other and
// adds each member's best edge outside the pair from the original matrix.
func repairPairs(sim *mat.Dense, rows [][]graph.Edge) int {
	n := len(rows)
	nbrs := make([]map[int]bool, n)
	for i := range n {
		nbrs[i] = make(map[int]bool)
	}
	for i, row := range rows {
		for _, e := range row {
			nbrs[i][e.Target] = true
			nbrs[e.Target][i] = true
		}
	}

	soleNeighbor := func(i int) (int, bool) {
		if len(nbrs[i]) != 1 {
			return 0, false
		}
		for j := range nbrs[i] {
			return j, true
		}
		return 0, false
	}

	repaired := 0
	for a := range n {
		b, ok := soleNeighbor(a)
		if !ok || b < a {
			continue
		}
		if back, ok := soleNeighbor(b); !ok || back != a {
			continue
		}
		added := false
		for _, node := range []int{a, b} {
			other := a + b - node
			if e, ok := secondBest(sim, node, other); ok {
				rows[node] = append(rows[node], e)
				added = true
			}
		}
		if added {
			repaired++
		}
	}
	return repaired
}

// secondBest returns the strongest positive edge of row i that does not
// point at partner.
func secondBest(sim *mat.Dense, i, partner int) (graph.Edge, bool) {
	n, _ := sim.Dims()
	best := graph.Edge{Source: i, Target: -1}
	for j := range n {
		if j == i || j == partner {
			continue
		}
		if w := sim.At(i, j); w > 0 && w > best.Weight {
			best = graph.Edge{Source: i, Target: j, Weight: w}
		}
	}
	return best, best.Target >= 0
}
