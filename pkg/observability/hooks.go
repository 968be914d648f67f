// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about optimizer progress, pipeline stages, and cache
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetOptimizerHooks(&myOptimizerHooks{})
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Optimizer().OnLocalEpoch(ctx, epoch, total, alpha)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Optimizer Hooks
// =============================================================================

// OptimizerHooks receives events from the layout optimizers.
// Hook implementations must be cheap: local epochs can fire hundreds of
// times per run. Failures inside a hook must never abort optimization.
type OptimizerHooks interface {
	// OnLocalEpoch fires after each completed local-optimizer epoch.
	OnLocalEpoch(ctx context.Context, epoch, total int, alpha float64)

	// OnGlobalIteration fires after each global-refiner iteration.
	// cost is the DTM divergence for the iteration, or NaN when cost
	// computation is disabled.
	OnGlobalIteration(ctx context.Context, iter, total int, cost float64)

	// OnSnapshotError fires when an instrumentation snapshot sink fails.
	// Snapshots are best-effort; this is the only signal of a failed emit.
	OnSnapshotError(ctx context.Context, tag string, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the embedding pipeline.
type PipelineHooks interface {
	// OnStageStart fires when a pipeline stage (local, global) begins.
	OnStageStart(ctx context.Context, stage string, points int)

	// OnStageComplete fires when a pipeline stage finishes.
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopOptimizerHooks is a no-op implementation of OptimizerHooks.
type NoopOptimizerHooks struct{}

func (NoopOptimizerHooks) OnLocalEpoch(context.Context, int, int, float64)      {}
func (NoopOptimizerHooks) OnGlobalIteration(context.Context, int, int, float64) {}
func (NoopOptimizerHooks) OnSnapshotError(context.Context, string, error)       {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string, int)                     {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	optimizerHooks OptimizerHooks = NoopOptimizerHooks{}
	pipelineHooks  PipelineHooks  = NoopPipelineHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetOptimizerHooks registers custom optimizer hooks.
// This should be called once at application startup before optimization begins.
func SetOptimizerHooks(h OptimizerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		optimizerHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Optimizer returns the registered optimizer hooks.
func Optimizer() OptimizerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return optimizerHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	optimizerHooks = NoopOptimizerHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
