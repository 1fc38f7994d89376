package feature

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/similarity"
)

// NameColumn returns the name column for a label column, e.g.
// "Cluster_name" or "Cluster_L2_name".
func NameColumn(labelColumn string) string { return labelColumn + "_name" }

// NamingOptions controls cluster naming.
type NamingOptions struct {
	NTags     int      `json:"n_tags" toml:"n_tags" yaml:"n_tags" validate:"gte=1"`
	Separator string   `json:"separator" toml:"separator" yaml:"separator"`
	Blacklist []string `json:"blacklist,omitempty" toml:"blacklist" yaml:"blacklist"`
}

// DefaultNamingOptions keeps three tags joined by ", ".
func DefaultNamingOptions() NamingOptions {
	return NamingOptions{NTags: 3, Separator: ", "}
}

// TagScore is a ranked tag of one cluster.
type TagScore struct {
	Tag    string  `json:"tag"`
	Lift   float64 `json:"lift"`
	Weight float64 `json:"weight"` // summed tag weight inside the cluster
	Score  float64 `json:"score"`
}

// NameClusters returns a display name per label. Clusters without any tag
// of lift > 1 get an empty name.
func NameClusters(labels []string, tags [][]similarity.Tag, opts NamingOptions) map[string]string {
	names := make(map[string]string)
	for label, ranked := range RankTags(labels, tags, opts) {
		names[label] = joinNames(ranked, opts)
	}
	return names
}

// NameHierarchy names every level of a hierarchy independently.
func NameHierarchy(h community.Hierarchy, tags [][]similarity.Tag, opts NamingOptions) []map[string]string {
	out := make([]map[string]string, len(h.Levels))
	for i, lvl := range h.Levels {
		out[i] = NameClusters(lvl.Labels, tags, opts)
	}
	return out
}

// RankTags returns the tags with lift > 1 for every cluster, best first.
func RankTags(labels []string, tags [][]similarity.Tag, opts NamingOptions) map[string][]TagScore {
	blocked := make(map[string]bool, len(opts.Blacklist))
	for _, b := range opts.Blacklist {
		blocked[strings.ToLower(b)] = true
	}

	n := len(labels)
	global := make(map[string]int)
	size := make(map[string]int)
	local := make(map[string]map[string]int)
	weight := make(map[string]map[string]float64)

	for i, label := range labels {
		size[label]++
		if local[label] == nil {
			local[label] = make(map[string]int)
			weight[label] = make(map[string]float64)
		}
		if i >= len(tags) {
			continue
		}
		seen := make(map[string]bool)
		for _, t := range tags[i] {
			name := strings.TrimSpace(t.Name)
			if name == "" || blocked[strings.ToLower(name)] {
				continue
			}
			weight[label][name] += t.Weight
			if seen[name] {
				continue
			}
			seen[name] = true
			global[name]++
			local[label][name]++
		}
	}

	out := make(map[string][]TagScore, len(size))
	for label, counts := range local {
		var ranked []TagScore
		for name, c := range counts {
			// lift = (c/size) / (global/n), compared without division.
			num := float64(c) * float64(n)
			den := float64(global[name]) * float64(size[label])
			if num <= den {
				continue
			}
			lift := num / den
			w := weight[label][name]
			ranked = append(ranked, TagScore{Tag: name, Lift: lift, Weight: w, Score: w * math.Sqrt(lift)})
		}
		slices.SortFunc(ranked, func(a, b TagScore) int {
			if c := cmp.Compare(b.Score, a.Score); c != 0 {
				return c
			}
			return cmp.Compare(a.Tag, b.Tag)
		})
		out[label] = ranked
	}
	return out
}

// joinNames picks the top tags, skipping single-word tags already covered
// by a selected multi-word tag.
func joinNames(ranked []TagScore, opts NamingOptions) string {
	sep := opts.Separator
	if sep == "" {
		sep = ", "
	}
	var picked []string
	for _, ts := range ranked {
		if len(picked) == opts.NTags {
			break
		}
		if !strings.Contains(ts.Tag, " ") && covered(ts.Tag, picked) {
			continue
		}
		picked = append(picked, ts.Tag)
	}
	return strings.Join(picked, sep)
}

func covered(word string, picked []string) bool {
	w := strings.ToLower(word)
	for _, p := range picked {
		if strings.Contains(p, " ") && strings.Contains(strings.ToLower(p), w) {
			return true
		}
	}
	return false
}
