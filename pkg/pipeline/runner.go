package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HunRotation/umato/pkg/cache"
	"github.com/HunRotation/umato/pkg/graph"
	"github.com/HunRotation/umato/pkg/layout"
	"github.com/HunRotation/umato/pkg/matrix"
	"github.com/HunRotation/umato/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete local → global pipeline with caching.
// The input coordinate matrix is never mutated; stages work on a copy.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}
	result.Stats.Points = len(opts.Coords)
	result.Stats.Dim = len(opts.Coords[0])
	result.Stats.EdgeCount = opts.Graph.EdgeCount()

	// Stage 1: Local
	localStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, "local", result.Stats.Points)
	local, localHit, err := r.RunLocalWithCacheInfo(ctx, opts)
	result.Stats.LocalTime = time.Since(localStart)
	observability.Pipeline().OnStageComplete(ctx, "local", result.Stats.LocalTime, err)
	if err != nil {
		return nil, fmt.Errorf("local stage: %w", err)
	}
	result.CacheInfo.LocalHit = localHit

	r.Logger.Info("local layout complete",
		"points", result.Stats.Points,
		"edges", result.Stats.EdgeCount,
		"cached", localHit,
		"duration", result.Stats.LocalTime)

	result.Embedding = local

	// Stage 2: Global (only when a similarity matrix is supplied)
	if opts.P != nil {
		globalStart := time.Now()
		observability.Pipeline().OnStageStart(ctx, "global", result.Stats.Points)
		refined, costs, globalHit, err := r.RunGlobalWithCacheInfo(ctx, local, opts)
		result.Stats.GlobalTime = time.Since(globalStart)
		observability.Pipeline().OnStageComplete(ctx, "global", result.Stats.GlobalTime, err)
		if err != nil {
			return nil, fmt.Errorf("global stage: %w", err)
		}
		result.Embedding = refined
		result.Costs = costs
		result.CacheInfo.GlobalHit = globalHit

		r.Logger.Info("global refinement complete",
			"iterations", opts.MaxIter,
			"cached", globalHit,
			"duration", result.Stats.GlobalTime)
	}

	if data, err := json.Marshal(result.Embedding); err == nil {
		result.EmbeddingHash = cache.Hash(data)
	}

	return result, nil
}

// RunLocalWithCacheInfo runs the local stage with caching and reports
// whether the result came from cache.
func (r *Runner) RunLocalWithCacheInfo(ctx context.Context, opts Options) ([][]float64, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	inputHash, err := hashLocalInputs(opts.Coords, opts.Graph)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.EmbeddingKey(inputHash, opts.LocalKeyOpts())

	if !opts.Refresh {
		if coords, ok := r.getCoords(ctx, cacheKey); ok {
			observability.Cache().OnCacheHit(ctx, "embedding")
			return coords, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "embedding")
	}

	work := matrix.Clone(opts.Coords)
	coords, err := layout.OptimizeLocal(ctx, work, work, opts.Graph, opts.Curve, opts.localOptions())
	if err != nil {
		return nil, false, err
	}

	r.setCoords(ctx, cacheKey, coords)
	return coords, false, nil
}

// RunLocal is a convenience wrapper that discards the cache hit info.
func (r *Runner) RunLocal(ctx context.Context, opts Options) ([][]float64, error) {
	coords, _, err := r.RunLocalWithCacheInfo(ctx, opts)
	return coords, err
}

// globalProduct is the cached payload of the global stage.
type globalProduct struct {
	Embedding [][]float64 `json:"embedding"`
	Costs     []float64   `json:"costs,omitempty"`
}

// RunGlobalWithCacheInfo runs the global stage on the local-stage output
// with caching and reports whether the result came from cache.
func (r *Runner) RunGlobalWithCacheInfo(ctx context.Context, local [][]float64, opts Options) ([][]float64, []float64, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)

	inputHash, err := hashGlobalInputs(local, opts.P)
	if err != nil {
		return nil, nil, false, err
	}
	cacheKey := r.Keyer.EmbeddingKey(inputHash, opts.GlobalKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var product globalProduct
			if err := json.Unmarshal(data, &product); err == nil {
				observability.Cache().OnCacheHit(ctx, "embedding")
				return product.Embedding, product.Costs, true, nil
			}
			// Corrupt entries fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "embedding")
	}

	work := matrix.Clone(local)
	refined, costs, err := layout.OptimizeGlobal(ctx, opts.P, work, opts.Curve, opts.globalOptions())
	if err != nil {
		return nil, nil, false, err
	}

	if data, err := json.Marshal(globalProduct{Embedding: refined, Costs: costs}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLEmbedding); err == nil {
			observability.Cache().OnCacheSet(ctx, "embedding", len(data))
		}
	}
	return refined, costs, false, nil
}

// RunGlobal is a convenience wrapper that discards the cache hit info.
func (r *Runner) RunGlobal(ctx context.Context, local [][]float64, opts Options) ([][]float64, []float64, error) {
	refined, costs, _, err := r.RunGlobalWithCacheInfo(ctx, local, opts)
	return refined, costs, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (r *Runner) getCoords(ctx context.Context, key string) ([][]float64, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var coords [][]float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return nil, false
	}
	return coords, true
}

func (r *Runner) setCoords(ctx context.Context, key string, coords [][]float64) {
	data, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLEmbedding); err == nil {
		observability.Cache().OnCacheSet(ctx, "embedding", len(data))
	}
}

func hashLocalInputs(coords [][]float64, g *graph.Graph) (string, error) {
	payload := struct {
		Coords [][]float64  `json:"coords"`
		Graph  *graph.Graph `json:"graph"`
	}{coords, g}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hash local inputs: %w", err)
	}
	return cache.Hash(data), nil
}

func hashGlobalInputs(local [][]float64, p [][]float64) (string, error) {
	payload := struct {
		Local [][]float64 `json:"local"`
		P     [][]float64 `json:"p"`
	}{local, p}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hash global inputs: %w", err)
	}
	return cache.Hash(data), nil
}
