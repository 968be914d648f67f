// Package cache provides caching for expensive pipeline stages.
//
// The embedding pipeline has two costly products: the optimized local layout
// and the globally refined embedding. Both are deterministic functions of
// their inputs and options, so they cache well under content-derived keys.
//
// # Architecture
//
// The package separates two concerns:
//   - Cache: the storage backend (file, Redis, null)
//   - Keyer: the key derivation scheme (what identifies a cached product)
//
// Backends are interchangeable; the CLI uses the file cache, server
// deployments use Redis, and tests use the null cache.
package cache

import (
	"context"
	"time"
)

// =============================================================================
// TTL Policy
// =============================================================================

// Default TTLs per product type. Embeddings are deterministic in their key,
// so the TTL exists only to bound disk usage; rendered artifacts churn with
// styling changes and expire sooner.
const (
	TTLEmbedding = 30 * 24 * time.Hour
	TTLArtifact  = 7 * 24 * time.Hour
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache is a byte-oriented key-value store with per-entry expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl stores the entry without
	// expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// Keyer Interface
// =============================================================================

// EmbeddingKeyOpts are the optimizer parameters that shape an embedding.
// Two runs with equal graph hash and equal options produce identical
// coordinates, which is what makes embedding caching sound. ComputeCost is
// part of the key because the cached global-stage payload carries the cost
// trace: a cost-requesting run must not be served a cost-free entry.
type EmbeddingKeyOpts struct {
	NEpochs            int
	InitialAlpha       float64
	Gamma              float64
	NegativeSampleRate float64
	MaxIter            int
	GlobalAlpha        float64
	ComputeCost        bool
	CurveA             float64
	CurveB             float64
	Seed               int64
}

// ArtifactKeyOpts are the rendering parameters of an exported artifact.
type ArtifactKeyOpts struct {
	Format    string
	Width     int
	Height    int
	PointSize float64
}

// Keyer derives cache keys for the pipeline's products.
type Keyer interface {
	// EmbeddingKey identifies an optimized embedding of the graph with the
	// given content hash.
	EmbeddingKey(graphHash string, opts EmbeddingKeyOpts) string

	// ArtifactKey identifies a rendered artifact of the embedding with the
	// given content hash.
	ArtifactKey(embeddingHash string, opts ArtifactKeyOpts) string
}

// =============================================================================
// Default Keyer
// =============================================================================

// DefaultKeyer derives keys by hashing the content hash together with the
// option struct. Any option change produces a new key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// EmbeddingKey generates a key for embedding caching.
func (k *DefaultKeyer) EmbeddingKey(graphHash string, opts EmbeddingKeyOpts) string {
	return hashKey("embedding", graphHash, opts)
}

// ArtifactKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) ArtifactKey(embeddingHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", embeddingHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
