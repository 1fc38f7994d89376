package cache

// Keyer derives cache keys for pipeline results.
type Keyer interface {
	// SimilarityKey keys a similarity matrix by the hash of its input
	// (tag lists or embeddings) and the options that shape it.
	SimilarityKey(inputHash string, opts SimilarityKeyOpts) string

	// LayoutKey keys layout positions by the hash of the clustered graph
	// and the layout configuration.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// SimilarityKeyOpts are the options that change a similarity matrix.
type SimilarityKeyOpts struct {
	Kind      string   `json:"kind"` // "tags" or "embeddings"
	IDF       bool     `json:"idf"`
	Blacklist []string `json:"blacklist,omitempty"`
}

// LayoutKeyOpts are the options that change a layout.
type LayoutKeyOpts struct {
	Strategy string `json:"strategy"`
	// Config is the canonical JSON encoding of the layout options.
	Config []byte `json:"config"`
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SimilarityKey implements [Keyer].
func (DefaultKeyer) SimilarityKey(inputHash string, opts SimilarityKeyOpts) string {
	return hashKey("similarity", inputHash, opts)
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}
