package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several datasets or
// users can share one backend without collisions.
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "companies:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SimilarityKey implements [Keyer].
func (k *ScopedKeyer) SimilarityKey(inputHash string, opts SimilarityKeyOpts) string {
	return k.prefix + k.inner.SimilarityKey(inputHash, opts)
}

// LayoutKey implements [Keyer].
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}
