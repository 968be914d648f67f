package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// Server deployments sharing one Redis instance scope each project's keys:
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:mnist:")
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

// EmbeddingKey generates a prefixed key for embedding caching.
func (k *ScopedKeyer) EmbeddingKey(graphHash string, opts EmbeddingKeyOpts) string {
	return k.prefix + k.inner.EmbeddingKey(graphHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(embeddingHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(embeddingHash, opts)
}
