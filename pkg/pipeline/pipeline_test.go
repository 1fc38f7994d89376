package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/landscape/pkg/cache"
	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/feature"
	"github.com/matzehuels/landscape/pkg/layout"
	"github.com/matzehuels/landscape/pkg/table"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// twoGroups returns ten entities in two tag groups that share no tags.
func twoGroups(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.New(
		table.Column{Name: "name", Values: []any{"a0", "a1", "a2", "a3", "a4", "b0", "b1", "b2", "b3", "b4"}},
		table.Column{Name: "tags", Values: []any{
			"go|cli", "go|cli|tui", "go|tui", "cli|tui", "go|cli|tui",
			"rust|wasm", "rust|wasm|web", "rust|web", "wasm|web", "rust|wasm|web",
		}},
		table.Column{Name: "stars", Values: []any{"10", "20", "5", "1", "3", "8", "2", "7", "", "4"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return tb
}

func TestExecuteTwoGroups(t *testing.T) {
	opts := DefaultOptions()
	opts.Sparsify.LinksPerNode = 4
	opts.Logger = quietLogger()

	res, err := Run(context.Background(), Input{Entities: twoGroups(t)}, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.Stats.Clusters != 2 {
		t.Fatalf("clusters = %d, want 2", res.Stats.Clusters)
	}
	labels := res.Hierarchy.Top()
	for i := range 5 {
		if labels[i] != labels[0] {
			t.Errorf("label(%d) = %s, want %s", i, labels[i], labels[0])
		}
		if labels[5+i] != labels[5] {
			t.Errorf("label(%d) = %s, want %s", 5+i, labels[5+i], labels[5])
		}
	}
	if labels[0] == labels[5] {
		t.Error("groups share a cluster")
	}
	for _, e := range res.Edges {
		if (e.Source < 5) != (e.Target < 5) {
			t.Errorf("edge %v crosses the groups", e)
		}
	}

	if res.Stats.Placed != 10 {
		t.Errorf("placed = %d, want 10", res.Stats.Placed)
	}
	names := res.Names[0]
	if names[labels[0]] == "" || names[labels[5]] == "" {
		t.Errorf("names = %v, want both clusters named", names)
	}
}

func TestExecutePreservesInputColumns(t *testing.T) {
	in := twoGroups(t)
	before := in.Clone()

	opts := DefaultOptions()
	opts.Logger = quietLogger()
	res, err := Run(context.Background(), Input{Entities: in}, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := res.Nodes.Names()
	want := []string{
		"name", "tags", "stars", RowIDColumn,
		community.ColumnName(0), feature.NameColumn(community.ColumnName(0)),
		feature.ColumnDegree, feature.ColumnInDegree, feature.ColumnOutDegree,
		feature.ColumnBridging, feature.ColumnDiversity, feature.ColumnCentrality, feature.ColumnSize,
		XColumn, YColumn,
	}
	if !slices.Equal(got, want) {
		t.Errorf("columns = %v\nwant %v", got, want)
	}

	for _, name := range before.Names() {
		b, _ := before.Strings(name)
		a, _ := res.Nodes.Strings(name)
		if !slices.Equal(a, b) {
			t.Errorf("column %s changed: %v -> %v", name, b, a)
		}
		orig, _ := in.Strings(name)
		if !slices.Equal(orig, b) {
			t.Errorf("caller table column %s was modified", name)
		}
	}
	if in.Has(RowIDColumn) {
		t.Error("caller table gained a row_id column")
	}
}

func TestExecuteEmbeddings(t *testing.T) {
	tb, _ := table.New(table.Column{Name: "name", Values: []any{"a", "b", "c", "d"}})
	emb := [][]float64{{1, 0.1}, {1, 0.2}, {0.1, 1}, {0.2, 1}}

	opts := DefaultOptions()
	opts.Logger = quietLogger()
	opts.Layout.Strategy = layout.StrategyRandom
	res, err := Run(context.Background(), Input{Entities: tb, Embeddings: emb}, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Similarity.Entities != 4 {
		t.Errorf("similarity entities = %d, want 4", res.Similarity.Entities)
	}
	labels := res.Hierarchy.Top()
	if labels[0] != labels[1] || labels[2] != labels[3] || labels[0] == labels[2] {
		t.Errorf("labels = %v, want {0,1} and {2,3}", labels)
	}
	// Without a tag column the name column exists but is empty.
	names, ok := res.Nodes.Strings(feature.NameColumn(community.ColumnName(0)))
	if !ok {
		t.Fatal("name column missing")
	}
	for i, n := range names {
		if n != "" {
			t.Errorf("name(%d) = %q, want empty", i, n)
		}
	}
}

func TestExecuteErrors(t *testing.T) {
	noTags, _ := table.New(table.Column{Name: "name", Values: []any{"a", "b"}})
	withRowID, _ := table.New(
		table.Column{Name: "tags", Values: []any{"x", "x"}},
		table.Column{Name: RowIDColumn, Values: []any{"1", "2"}},
	)

	tests := []struct {
		name string
		in   Input
		edit func(*Options)
		code errors.Code
	}{
		{"nil table", Input{}, nil, errors.ErrCodeInvalidInput},
		{"empty table", Input{Entities: &table.Table{}}, nil, errors.ErrCodeInvalidInput},
		{"no tags", Input{Entities: noTags}, nil, errors.ErrCodeInvalidInput},
		{"row_id taken", Input{Entities: withRowID}, nil, errors.ErrCodeInvalidInput},
		{"embedding count", Input{Entities: noTags, Embeddings: [][]float64{{1}}}, nil, errors.ErrCodeInvalidInput},
		{"unknown method", Input{Entities: noTags}, func(o *Options) { o.Cluster.Method = "spectral" }, errors.ErrCodeUnknownMethod},
		{"unknown layout", Input{Entities: noTags}, func(o *Options) { o.Layout.Strategy = "spiral" }, errors.ErrCodeUnknownLayout},
		{"text sizes", Input{Entities: twoGroups(t)}, func(o *Options) { o.Layout.SizeColumn = "name" }, errors.ErrCodeInvalidInput},
		{"missing sizes", Input{Entities: twoGroups(t)}, func(o *Options) { o.Layout.SizeColumn = "downloads" }, errors.ErrCodeInvalidConfig},
		{"distance dims", Input{Entities: twoGroups(t), Distances: mat.NewDense(3, 3, nil)}, nil, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Logger = quietLogger()
			if tt.edit != nil {
				tt.edit(&opts)
			}
			_, err := Run(context.Background(), tt.in, opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := DefaultOptions()
	opts.Logger = quietLogger()
	if _, err := Run(ctx, Input{Entities: twoGroups(t)}, opts); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunnerCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	defer r.Close()

	opts := DefaultOptions()
	in := Input{Entities: twoGroups(t)}

	first, err := r.Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.SimilarityHit || first.CacheInfo.LayoutHit {
		t.Errorf("first run cache info = %+v, want misses", first.CacheInfo)
	}

	second, err := r.Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.SimilarityHit || !second.CacheInfo.LayoutHit {
		t.Errorf("second run cache info = %+v, want hits", second.CacheInfo)
	}
	if first.RunID == second.RunID {
		t.Error("runs share a RunID")
	}
	for id, p := range first.Positions {
		if second.Positions[id] != p {
			t.Errorf("position(%d) = %v from cache, want %v", id, second.Positions[id], p)
		}
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.SimilarityHit || third.CacheInfo.LayoutHit {
		t.Errorf("refresh run cache info = %+v, want misses", third.CacheInfo)
	}
}

// uniformDistances returns an n×n matrix with d off the diagonal.
func uniformDistances(n int, d float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := range n {
		for j := range n {
			if i != j {
				m.Set(i, j, d)
			}
		}
	}
	return m
}

func TestRunnerCallerDistances(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	defer r.Close()

	opts := DefaultOptions()
	opts.Layout.Strategy = layout.StrategyTSNE
	opts.Layout.Iterations = 100
	in := Input{Entities: twoGroups(t), Distances: uniformDistances(10, 1)}

	first, err := r.Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Positions) != 10 {
		t.Errorf("placed %d of 10", len(first.Positions))
	}

	again, err := r.Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.LayoutHit {
		t.Error("same distances should hit the layout cache")
	}

	in.Distances = uniformDistances(10, 2)
	other, err := r.Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheInfo.LayoutHit {
		t.Error("changed distances should miss the layout cache")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Options)
		code errors.Code
	}{
		{"defaults", func(*Options) {}, ""},
		{"leiden hierarchy", func(o *Options) {
			o.Cluster.Method = community.MethodLeiden
			o.Cluster.Resolution = []float64{1, 2}
			o.Cluster.MinSizes = []int{4}
		}, ""},
		{"unknown method", func(o *Options) { o.Cluster.Method = "spectral" }, errors.ErrCodeUnknownMethod},
		{"unknown layout", func(o *Options) { o.Layout.Strategy = "spiral" }, errors.ErrCodeUnknownLayout},
		{"missing min sizes", func(o *Options) { o.Cluster.Resolution = []float64{1, 2} }, errors.ErrCodeInvalidResolution},
		{"zero links", func(o *Options) { o.Sparsify.LinksPerNode = 0 }, errors.ErrCodeInvalidConfig},
		{"negative resolution", func(o *Options) { o.Cluster.Resolution = []float64{-1} }, errors.ErrCodeInvalidConfig},
		{"overlap fraction", func(o *Options) { o.Layout.OverlapFrac = 1 }, errors.ErrCodeInvalidConfig},
		{"projection", func(o *Options) { o.Layout.Projection = "pca" }, errors.ErrCodeInvalidConfig},
		{"empty tag column", func(o *Options) { o.Similarity.TagColumn = "" }, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.edit(&opts)
			err := opts.Validate()
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadOptionsFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"landscape.toml": `
[cluster]
method = "leiden"
resolution = [1.0, 2.0]
min_sizes = [3]

[layout]
strategy = "circle"
`,
		"landscape.yaml": `
sparsify:
  links_per_node: 8
naming:
  separator: " / "
`,
		"landscape.json": `{"naming": {"n_tags": 5}, "layout": {"projection": "umap"}}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("toml", func(t *testing.T) {
		o, err := LoadOptionsFile(filepath.Join(dir, "landscape.toml"))
		if err != nil {
			t.Fatal(err)
		}
		if o.Cluster.Method != community.MethodLeiden || !slices.Equal(o.Cluster.Resolution, []float64{1, 2}) {
			t.Errorf("cluster = %+v", o.Cluster)
		}
		if o.Layout.Strategy != layout.StrategyCircle {
			t.Errorf("strategy = %s, want circle", o.Layout.Strategy)
		}
		if o.Layout.OverlapFrac != DefaultOptions().Layout.OverlapFrac {
			t.Errorf("unset key lost its default: overlap_frac = %v", o.Layout.OverlapFrac)
		}
		if err := o.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		o, err := LoadOptionsFile(filepath.Join(dir, "landscape.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		if o.Sparsify.LinksPerNode != 8 || o.Naming.Separator != " / " {
			t.Errorf("sparsify = %+v, naming = %+v", o.Sparsify, o.Naming)
		}
		if o.Naming.NTags != DefaultOptions().Naming.NTags {
			t.Errorf("n_tags = %d, want default", o.Naming.NTags)
		}
	})

	t.Run("json", func(t *testing.T) {
		o, err := LoadOptionsFile(filepath.Join(dir, "landscape.json"))
		if err != nil {
			t.Fatal(err)
		}
		if o.Naming.NTags != 5 || o.Layout.Projection != "umap" {
			t.Errorf("naming = %+v, projection = %s", o.Naming, o.Layout.Projection)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		path := filepath.Join(dir, "landscape.ini")
		os.WriteFile(path, []byte("x=1"), 0o644)
		if _, err := LoadOptionsFile(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("err = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := LoadOptionsFile(filepath.Join(dir, "nope.toml")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("err = %v, want INVALID_CONFIG", err)
		}
	})
}

func TestWriteTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.toml")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := DefaultOptions().WriteTOML(f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	o, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("written defaults do not validate: %v", err)
	}
	if o.Layout.Strategy != layout.StrategyCluster || o.Sparsify.LinksPerNode != DefaultOptions().Sparsify.LinksPerNode {
		t.Errorf("round trip lost values: %+v", o)
	}
}
