package cache

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey generates a key for a cached API response.
	HTTPKey(namespace, key string) string
	// CatalogKey generates a key for an evaluated catalog.
	CatalogKey(environment string, opts CatalogKeyOpts) string
}

// CatalogKeyOpts are the inputs that change an evaluated catalog.
type CatalogKeyOpts struct {
	ConfigHash string   // Hash of the loaded configuration
	Inputs     []string // Fingerprints of input files, see HashFiles
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey generates a key like "http:rubygems::nokogiri".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// CatalogKey hashes the environment with opts. Input order matters.
func (DefaultKeyer) CatalogKey(environment string, opts CatalogKeyOpts) string {
	return hashKey("catalog:"+environment, append([]string{opts.ConfigHash}, opts.Inputs...)...)
}

// ScopedKeyer wraps a Keyer with a prefix, isolating applications that
// share one cache backend.
//
// Example usage:
//
//	appKeyer := NewScopedKeyer(NewDefaultKeyer(), "app:storefront:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// CatalogKey generates a prefixed key for catalog caching.
func (k *ScopedKeyer) CatalogKey(environment string, opts CatalogKeyOpts) string {
	return k.prefix + k.inner.CatalogKey(environment, opts)
}
