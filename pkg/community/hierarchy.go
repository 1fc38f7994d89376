package community

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ColumnPrefix names the level-0 label column; deeper levels append _L{k+1}.
const ColumnPrefix = "Cluster"

// Level is one layer of the cluster hierarchy.
type Level struct {
	Depth  int               `json:"depth"`
	Labels []string          `json:"labels"`           // one label per row id
	Parent map[string]string `json:"parent,omitempty"` // label -> parent label; nil at depth 0
}

// Hierarchy is an ordered list of levels, coarsest first.
type Hierarchy struct {
	Levels []Level `json:"levels"`

	// Merge reports the small-cluster merge, keyed by the level-0 labels
	// before reassignment. Nil when the merge did not run.
	Merge *MergeReport `json:"merge,omitempty"`
}

// Depth returns the number of levels.
func (h Hierarchy) Depth() int { return len(h.Levels) }

// Top returns the level-0 labels, or nil for an empty hierarchy.
func (h Hierarchy) Top() []string {
	if len(h.Levels) == 0 {
		return nil
	}
	return h.Levels[0].Labels
}

// Finest returns the labels of the deepest level.
func (h Hierarchy) Finest() []string {
	if len(h.Levels) == 0 {
		return nil
	}
	return h.Levels[len(h.Levels)-1].Labels
}

// ColumnName returns the table column name for a level: "Cluster",
// "Cluster_L2", "Cluster_L3", ...
func ColumnName(depth int) string {
	if depth == 0 {
		return ColumnPrefix
	}
	return ColumnPrefix + "_L" + strconv.Itoa(depth+1)
}

// Sizes returns member counts per label at a level.
func (l Level) Sizes() map[string]int {
	sizes := make(map[string]int)
	for _, lab := range l.Labels {
		sizes[lab]++
	}
	return sizes
}

// Clusters returns the distinct labels at a level in first-seen order.
func (l Level) Clusters() []string {
	seen := make(map[string]bool)
	var out []string
	for _, lab := range l.Labels {
		if !seen[lab] {
			seen[lab] = true
			out = append(out, lab)
		}
	}
	return out
}

// Members returns the row ids per label at a level.
func (l Level) Members() map[string][]int {
	m := make(map[string][]int)
	for i, lab := range l.Labels {
		m[lab] = append(m[lab], i)
	}
	return m
}

// Validate checks that every level labels every node and refines its parent.
func (h Hierarchy) Validate(n int) error {
	for d, lvl := range h.Levels {
		if len(lvl.Labels) != n {
			return fmt.Errorf("level %d has %d labels, want %d", d, len(lvl.Labels), n)
		}
		if d == 0 {
			continue
		}
		prev := h.Levels[d-1].Labels
		for i, lab := range lvl.Labels {
			if p, ok := lvl.Parent[lab]; !ok || p != prev[i] {
				return fmt.Errorf("level %d node %d: label %q does not refine %q", d, i, lab, prev[i])
			}
		}
	}
	return nil
}

// nest builds a hierarchy from nested flat partitions given coarsest first.
// Each partition maps row id to an arbitrary community id; finer partitions
// must refine coarser ones.
func nest(partitions [][]int) Hierarchy {
	if len(partitions) == 0 {
		return Hierarchy{}
	}
	n := len(partitions[0])
	top := flatLabels(n, groups(partitions[0]))
	h := Hierarchy{Levels: []Level{{Depth: 0, Labels: top}}}

	for d := 1; d < len(partitions); d++ {
		prev := h.Levels[d-1].Labels
		h.Levels = append(h.Levels, refine(d, prev, partitions[d]))
	}
	return h
}

// refine names the communities of a finer partition inside each parent.
func refine(depth int, parents []string, membership []int) Level {
	n := len(parents)
	byParent := make(map[string][]int)
	for i, p := range parents {
		byParent[p] = append(byParent[p], i)
	}

	lvl := Level{Depth: depth, Labels: make([]string, n), Parent: make(map[string]string)}
	keys := make([]string, 0, len(byParent))
	for p := range byParent {
		keys = append(keys, p)
	}
	sortLabels(keys)

	for _, p := range keys {
		members := byParent[p]
		local := make(map[int][]int)
		for _, node := range members {
			local[membership[node]] = append(local[membership[node]], node)
		}
		gs := make([][]int, 0, len(local))
		for _, g := range local {
			gs = append(gs, g)
		}
		sortGroups(gs)
		for i, g := range gs {
			name := p + "_" + strconv.Itoa(i)
			lvl.Parent[name] = p
			for _, node := range g {
				lvl.Labels[node] = name
			}
		}
	}
	return lvl
}

// sortLabels orders labels like "2" < "10" < "10_1" by comparing their
// "_"-separated parts numerically where possible.
func sortLabels(labels []string) {
	slices.SortFunc(labels, CompareLabels)
}

// CompareLabels compares hierarchical labels part by part, numerically when
// both parts are integers.
func CompareLabels(a, b string) int {
	pa, pb := strings.Split(a, "_"), strings.Split(b, "_")
	for i := range min(len(pa), len(pb)) {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		var c int
		if errA == nil && errB == nil {
			c = cmp.Compare(na, nb)
		} else {
			c = cmp.Compare(pa[i], pb[i])
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(pa), len(pb))
}
