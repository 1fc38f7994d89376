package layout

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/landscape/pkg/layout/force"
	"github.com/matzehuels/landscape/pkg/layout/project"
)

// forceStrategy runs a spring layout over the largest connected component.
type forceStrategy struct{}

func (forceStrategy) Name() string { return StrategyForceDirected }

func (forceStrategy) Compute(in Input, opts Options) (Positions, error) {
	pos := make(Positions)
	comp := in.graph().LargestComponent()
	if len(comp) == 0 {
		return pos, nil
	}
	sub, ids := in.graph().Subgraph(comp)
	local := make([]int64, len(ids))
	for i := range local {
		local[i] = int64(i)
	}
	eades := force.DefaultEadesOptions()
	eades.Seed = opts.Seed
	if opts.Iterations > 0 {
		eades.Updates = opts.Iterations
	}
	pts := force.Eades(sub.GonumUndirected(), local, eades)
	scale(pts, opts.ScaleFactor*math.Sqrt(float64(len(ids))))
	for i, id := range ids {
		pos[id] = pts[i]
	}
	if skipped := in.N - len(ids); skipped > 0 {
		opts.logger().Debug("force layout skipped nodes outside the largest component", "skipped", skipped)
	}
	return pos, nil
}

// projectionStrategy places nodes by projection only.
type projectionStrategy struct {
	method string
}

func (s projectionStrategy) Name() string { return s.method }

func (s projectionStrategy) Compute(in Input, opts Options) (Positions, error) {
	pos := make(Positions, in.N)
	if in.N == 0 {
		return pos, nil
	}
	y, err := project.Project(s.method, in.distances(opts), opts.projection())
	if err != nil {
		return nil, err
	}
	for i, p := range fitRMS(y, opts.ScaleFactor*math.Sqrt(float64(in.N))) {
		pos[i] = p
	}
	return pos, nil
}

// randomStrategy places nodes uniformly in a disk of radius ScaleFactor.
type randomStrategy struct{}

func (randomStrategy) Name() string { return StrategyRandom }

func (randomStrategy) Compute(in Input, opts Options) (Positions, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xda3e39cb94b95bdb))
	pos := make(Positions, in.N)
	for i := range in.N {
		r := opts.ScaleFactor * math.Sqrt(rng.Float64())
		sin, cos := math.Sincos(2 * math.Pi * rng.Float64())
		pos[i] = r2.Vec{X: r * cos, Y: r * sin}
	}
	return pos, nil
}
