package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/errors"
	lio "github.com/matzehuels/landscape/pkg/io"
	"github.com/matzehuels/landscape/pkg/observability"
	"github.com/matzehuels/landscape/pkg/pipeline"
	"github.com/matzehuels/landscape/pkg/render/nodelink"
)

// Output file names written by "run".
const (
	nodesFile   = "nodes.csv"
	edgesFile   = "edges.csv"
	summaryFile = "summary.json"
	dotFile     = "preview.dot"
	svgFile     = "preview.svg"
)

// runFlags holds the flags for the run command.
type runFlags struct {
	cache      cacheFlags
	config     string
	embeddings string
	output     string
	refresh    bool
	metrics    string

	method     string
	layout     string
	links      float64
	resolution []float64
	seed       uint64

	dot        bool
	svg        bool
	labelCol   string
	showEdges  bool
}

// runCommand creates the run command for executing the complete pipeline.
func (c *CLI) runCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [entities.csv]",
		Short: "Cluster, name and lay out a CSV of entities",
		Long: `Run the complete pipeline: similarity, sparsification, clustering,
naming, metrics and layout.

The input CSV needs a header row. Tags are read from the configured tag
column (default "tags"); pass --embeddings to use vectors instead.
Results are written to the output directory as nodes.csv, edges.csv and
summary.json.`,
		Example: `  # Cluster with defaults
  landscape run repos.csv

  # Leiden with a custom config and an SVG preview
  landscape run repos.csv --config landscape.toml --method leiden --svg

  # Embeddings instead of tags, metrics for node_exporter
  landscape run repos.csv --embeddings vectors.csv --metrics landscape.prom`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPipeline(cmd, args[0], flags)
		},
	}

	flags.cache.register(cmd)
	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "options file (.toml, .yaml or .json)")
	cmd.Flags().StringVarP(&flags.embeddings, "embeddings", "e", "", "CSV of embedding vectors, one row per entity")
	cmd.Flags().StringVarP(&flags.output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "recompute cached stages")
	cmd.Flags().StringVar(&flags.metrics, "metrics", "", "write Prometheus metrics to this textfile")

	cmd.Flags().StringVar(&flags.method, "method", "", "clustering method: louvain or leiden")
	cmd.Flags().StringVar(&flags.layout, "layout", "", "layout strategy")
	cmd.Flags().Float64Var(&flags.links, "links", 0, "target links per node")
	cmd.Flags().Float64SliceVar(&flags.resolution, "resolution", nil, "resolution per hierarchy level")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "layout seed")

	cmd.Flags().BoolVar(&flags.dot, "dot", false, "also write a Graphviz preview ("+dotFile+")")
	cmd.Flags().BoolVar(&flags.svg, "svg", false, "also render an SVG preview ("+svgFile+")")
	cmd.Flags().StringVar(&flags.labelCol, "label-column", "name", "column used for preview labels")
	cmd.Flags().BoolVar(&flags.showEdges, "edges", false, "draw edges in the preview")
	registerOptionCompletions(cmd)

	return cmd
}

// loadRunOptions merges the config file and flag overrides.
func (c *CLI) loadRunOptions(cmd *cobra.Command, flags runFlags) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	if flags.config != "" {
		var err error
		if opts, err = pipeline.LoadOptionsFile(flags.config); err != nil {
			return opts, err
		}
	}

	set := cmd.Flags().Changed
	if set("method") {
		opts.Cluster.Method = flags.method
	}
	if set("layout") {
		opts.Layout.Strategy = flags.layout
	}
	if set("links") {
		opts.Sparsify.LinksPerNode = flags.links
	}
	if set("resolution") {
		opts.Cluster.Resolution = flags.resolution
	}
	if set("seed") {
		opts.Layout.Seed = flags.seed
	}
	opts.Refresh = flags.refresh
	opts.Logger = c.Logger

	return opts, opts.Validate()
}

func (c *CLI) runPipeline(cmd *cobra.Command, path string, flags runFlags) error {
	ctx := cmd.Context()

	opts, err := c.loadRunOptions(cmd, flags)
	if err != nil {
		return err
	}

	entities, err := lio.ImportEntities(path)
	if err != nil {
		return err
	}
	in := pipeline.Input{Entities: entities}
	if flags.embeddings != "" {
		if in.Embeddings, err = lio.ImportEmbeddings(flags.embeddings); err != nil {
			return err
		}
	}

	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Clustering %d entities:", entities.Len()))
	defer spinner.Close()

	hooks := observability.MultiPipelineHooks{spinner}
	var reg *prometheus.Registry
	if flags.metrics != "" {
		reg = prometheus.NewRegistry()
		prom, err := observability.NewPrometheusHooks(reg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "register metrics")
		}
		hooks = append(hooks, prom)
		observability.SetCacheHooks(prom)
	}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	runner, err := c.newRunner(ctx, flags.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner.Start()
	res, err := runner.Execute(ctx, in, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			printWarning("Cancelled")
			return err
		}
		spinner.StopWithError(errors.UserMessage(err))
		return err
	}
	spinner.Stop()
	prog.done("Clustered", "entities", res.Stats.Nodes, "clusters", res.Stats.Clusters)

	if err := os.MkdirAll(flags.output, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "create output directory")
	}
	written, err := writeResults(res, flags)
	if err != nil {
		return err
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(flags.metrics, reg); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write metrics")
		}
		written = append(written, flags.metrics)
	}

	printRunSummary(res, written, c.Logger.GetLevel() <= LogDebug)
	return nil
}

// writeResults writes the tables, the summary and the optional previews.
func writeResults(res *pipeline.Result, flags runFlags) ([]string, error) {
	out := func(name string) string { return filepath.Join(flags.output, name) }

	written := []string{out(nodesFile), out(edgesFile), out(summaryFile)}
	if err := lio.ExportNodes(res.Nodes, written[0]); err != nil {
		return nil, err
	}
	if err := lio.ExportEdges(res.Edges, written[1]); err != nil {
		return nil, err
	}
	if err := lio.ExportSummary(lio.NewSummary(res), written[2]); err != nil {
		return nil, err
	}

	if !flags.dot && !flags.svg {
		return written, nil
	}
	dot := nodelink.ToDOT(previewGraph(res, flags.labelCol), nodelink.Options{ShowEdges: flags.showEdges})
	if flags.dot {
		if err := os.WriteFile(out(dotFile), []byte(dot), 0o644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", dotFile)
		}
		written = append(written, out(dotFile))
	}
	if flags.svg {
		svg, err := nodelink.RenderSVG(dot)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render preview")
		}
		if err := os.WriteFile(out(svgFile), svg, 0o644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", svgFile)
		}
		written = append(written, out(svgFile))
	}
	return written, nil
}

// previewGraph colours nodes by their top-level cluster. Labels come from
// labelCol when the input has it.
func previewGraph(res *pipeline.Result, labelCol string) nodelink.Graph {
	g := nodelink.Graph{
		Positions: res.Positions,
		Edges:     res.Edges,
		Clusters:  res.Hierarchy.Top(),
	}
	if labels, ok := res.Nodes.Strings(labelCol); ok {
		g.Labels = labels
	}
	return g
}

func printRunSummary(res *pipeline.Result, files []string, verbose bool) {
	printSuccess("Landscape ready")
	printStats(res.Stats, res.CacheInfo)
	printKeyValue("run", res.RunID)
	printKeyValue("levels", fmt.Sprintf("%d", res.Hierarchy.Depth()))
	printKeyValue("placed", fmt.Sprintf("%d of %d", res.Stats.Placed, res.Stats.Nodes))
	if verbose {
		printTimings(res.Stats)
	}
	printNewline()
	for _, f := range files {
		printFile(f)
	}
	printNewline()
	printNextStep("Browse clusters", appName+" inspect "+filepath.Join(filepath.Dir(files[0]), summaryFile))
}
