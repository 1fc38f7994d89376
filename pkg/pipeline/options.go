package pipeline

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/feature"
	"github.com/matzehuels/landscape/pkg/layout"
	"github.com/matzehuels/landscape/pkg/similarity"
	"github.com/matzehuels/landscape/pkg/sparsify"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultTagColumn is the entity column holding delimited tags.
	DefaultTagColumn = "tags"

	// RowIDColumn is appended to the node table with each entity's row id.
	RowIDColumn = "row_id"

	// XColumn and YColumn hold the layout coordinates.
	XColumn = "x"
	YColumn = "y"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run. It is passed by
// value through every stage and never modified by the pipeline.
type Options struct {
	Similarity SimilarityOptions      `json:"similarity" toml:"similarity" yaml:"similarity"`
	Sparsify   sparsify.Options       `json:"sparsify" toml:"sparsify" yaml:"sparsify"`
	Cluster    ClusterOptions         `json:"cluster" toml:"cluster" yaml:"cluster"`
	Merge      community.MergeOptions `json:"merge" toml:"merge" yaml:"merge"`
	Naming     feature.NamingOptions  `json:"naming" toml:"naming" yaml:"naming"`
	Layout     layout.Options         `json:"layout" toml:"layout" yaml:"layout"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"-" toml:"-" yaml:"-"`

	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`
}

// SimilarityOptions selects how entities are compared.
type SimilarityOptions struct {
	// TagColumn names the entity column with delimited tags. Tags also feed
	// cluster naming when the similarity comes from embeddings.
	TagColumn string `json:"tag_column" toml:"tag_column" yaml:"tag_column" validate:"required"`
	Delimiter string `json:"delimiter" toml:"delimiter" yaml:"delimiter" validate:"required"`

	IDF       bool     `json:"idf" toml:"idf" yaml:"idf"`
	Blacklist []string `json:"blacklist,omitempty" toml:"blacklist" yaml:"blacklist"`
}

// ClusterOptions selects the community detection method.
type ClusterOptions struct {
	Method     string    `json:"method" toml:"method" yaml:"method" validate:"required"`
	Resolution []float64 `json:"resolution" toml:"resolution" yaml:"resolution" validate:"required,min=1,dive,gt=0"`
	MinSizes   []int     `json:"min_sizes,omitempty" toml:"min_sizes" yaml:"min_sizes" validate:"dive,gte=1"`
	Level      int       `json:"level" toml:"level" yaml:"level" validate:"gte=-2"`
}

// DefaultOptions returns the baseline configuration: tag similarity, the
// default edge budget, flat Louvain and the cluster layout.
func DefaultOptions() Options {
	c := community.DefaultOptions()
	return Options{
		Similarity: SimilarityOptions{
			TagColumn: DefaultTagColumn,
			Delimiter: similarity.DefaultDelimiter,
		},
		Sparsify: sparsify.DefaultOptions(),
		Cluster: ClusterOptions{
			Method:     c.Method,
			Resolution: c.Resolution,
			Level:      c.Level,
		},
		Merge:  community.DefaultMergeOptions(),
		Naming: feature.DefaultNamingOptions(),
		Layout: layout.DefaultOptions(),
	}
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the options without filling in defaults. Range errors
// are INVALID_CONFIG; unknown method and layout names and malformed
// resolution lists carry their own codes.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid options")
	}
	if _, err := community.NewDetector(o.Cluster.Method); err != nil {
		return err
	}
	if _, err := layout.New(o.Layout.Strategy); err != nil {
		return err
	}
	return o.community(nil).ValidateResolution()
}

// community assembles the detector options for one run.
func (o Options) community(logger *log.Logger) community.Options {
	return community.Options{
		Method:     o.Cluster.Method,
		Resolution: o.Cluster.Resolution,
		MinSizes:   o.Cluster.MinSizes,
		Level:      o.Cluster.Level,
		Merge:      o.Merge,
		Logger:     logger,
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return o.Logger
}

// =============================================================================
// Config Files
// =============================================================================

// LoadOptionsFile reads options from a .toml, .yaml, .yml or .json file.
// Keys absent from the file keep their [DefaultOptions] value.
func LoadOptionsFile(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &opts)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &opts)
	case ".json":
		err = json.Unmarshal(data, &opts)
	default:
		return opts, errors.New(errors.ErrCodeInvalidConfig,
			"unsupported config format %q (must be one of: .toml, .yaml, .yml, .json)", ext)
	}
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return opts, nil
}

// WriteTOML writes o as a TOML document, the format `landscape config`
// prints.
func (o Options) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(o)
}
