package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/landscape/pkg/layout/overlap"
	"github.com/matzehuels/landscape/pkg/layout/project"
)

// clusterStrategy places clusters at their median projected position and
// lays out each cluster's members with Kamada-Kawai.
type clusterStrategy struct{}

func (clusterStrategy) Name() string { return StrategyCluster }

func (clusterStrategy) Compute(in Input, opts Options) (Positions, error) {
	logger := opts.logger()
	pos := make(Positions, in.N)
	if in.N == 0 {
		return pos, nil
	}

	y, err := project.Project(opts.Projection, in.distances(opts), opts.projection())
	if err != nil {
		return nil, err
	}
	global := fitRMS(y, opts.ScaleFactor*math.Sqrt(float64(in.N)))

	g := in.graph()
	var total float64
	for i := range in.N {
		total += in.size(i)
	}
	mean := total / float64(in.N)

	keys, members := clusters(in.labels())
	circles := make([]overlap.Circle, len(keys))
	locals := make([][]r2.Vec, len(keys))
	for k, label := range keys {
		m := members[label]

		rel := 1.0
		if mean > 0 {
			var s float64
			for _, id := range m {
				s += in.size(id)
			}
			rel = s / float64(len(m)) / mean
		}
		local := localLayout(g, m, label, logger)
		scale(local, opts.ScaleFactor*math.Sqrt(float64(len(m))*rel))

		local, radius := Compress(local, opts.MaxExpansion)
		locals[k] = local
		circles[k] = overlap.Circle{ID: k, Center: medianPoint(global, m), Radius: radius}
	}

	rep := overlap.Resolve(circles, opts.OverlapFrac, opts.MaxIter)
	logger.Debug("resolved cluster overlap",
		"clusters", len(keys), "iterations", rep.Iterations, "debt", rep.Final(), "rolled_back", rep.RolledBack)

	for k, label := range keys {
		for i, id := range members[label] {
			pos[id] = r2.Add(rep.Circles[k].Center, locals[k][i])
		}
	}
	return pos, nil
}
