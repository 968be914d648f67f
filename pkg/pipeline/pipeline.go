// Package pipeline provides the core embedding pipeline.
//
// This package implements the complete local → global optimization pipeline
// shared by the CLI and the HTTP server. By centralizing this logic, both
// entry points get identical caching, validation, and instrumentation.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Local: stochastic per-edge optimization over the neighbor graph,
//     producing the coarse layout
//  2. Global: dense full-pairwise refinement against the similarity matrix
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage's product is cached under a content-derived key.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Coords: initial,
//	    Graph:  g,
//	    P:      similarity,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	embedding := result.Embedding
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HunRotation/umato/pkg/cache"
	"github.com/HunRotation/umato/pkg/errors"
	"github.com/HunRotation/umato/pkg/graph"
	"github.com/HunRotation/umato/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultNEpochs is the default number of local optimization epochs.
	DefaultNEpochs = 50

	// DefaultMaxIter is the default number of global refinement iterations.
	DefaultMaxIter = 10

	// DefaultCurveA and DefaultCurveB are the similarity kernel shape
	// parameters, matching a min-dist of 0.1 in the fitted kernel.
	DefaultCurveA = 1.577
	DefaultCurveB = 0.895
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the embedding pipeline.
type Options struct {
	// Inputs. Coords is the initial low-dimensional placement; Graph is the
	// neighbor graph driving the local stage; P is the similarity matrix for
	// the global stage. A nil P skips global refinement.
	Coords [][]float64  `json:"coords"`
	Graph  *graph.Graph `json:"graph"`
	P      [][]float64  `json:"p,omitempty"`

	// Labels are optional per-point class labels, forwarded to snapshots.
	Labels []int `json:"labels,omitempty"`

	// Local stage options.
	NEpochs            int     `json:"n_epochs,omitempty"`
	InitialAlpha       float64 `json:"initial_alpha,omitempty"`
	Gamma              float64 `json:"gamma,omitempty"`
	NegativeSampleRate float64 `json:"negative_sample_rate,omitempty"`
	Workers            int     `json:"workers,omitempty"`

	// Global stage options.
	MaxIter     int     `json:"max_iter,omitempty"`
	GlobalAlpha float64 `json:"global_alpha,omitempty"`
	ComputeCost bool    `json:"compute_cost,omitempty"`

	// Shared kernel shape and seed.
	Curve layout.Curve `json:"curve,omitempty"`
	Seed  int64        `json:"seed,omitempty"`

	// Refresh bypasses the cache and recomputes both stages.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized).
	Snapshot      layout.Snapshot `json:"-"`
	SnapshotEvery int             `json:"-"`
	Logger        *log.Logger     `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Embedding is the final coordinate matrix.
	Embedding [][]float64

	// EmbeddingHash is the content hash of the final embedding.
	EmbeddingHash string

	// Costs holds the per-iteration DTM divergence of the global stage,
	// when cost computation was enabled.
	Costs []float64

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Points     int
	Dim        int
	EdgeCount  int
	LocalTime  time.Duration
	GlobalTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LocalHit  bool // Whether the local layout came from cache
	GlobalHit bool // Whether the refined embedding came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if len(o.Coords) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "coords are required")
	}
	if o.Graph == nil {
		return errors.New(errors.ErrCodeInvalidInput, "graph is required")
	}
	if o.NEpochs < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "n_epochs must be non-negative, got %d", o.NEpochs)
	}
	if o.MaxIter < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_iter must be non-negative, got %d", o.MaxIter)
	}

	if o.NEpochs == 0 {
		o.NEpochs = DefaultNEpochs
	}
	if o.InitialAlpha == 0 {
		o.InitialAlpha = layout.DefaultInitialAlpha
	}
	if o.Gamma == 0 {
		o.Gamma = layout.DefaultGamma
	}
	if o.NegativeSampleRate == 0 {
		o.NegativeSampleRate = layout.DefaultNegativeSampleRate
	}
	if o.P != nil && o.MaxIter == 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.GlobalAlpha == 0 {
		o.GlobalAlpha = layout.DefaultGlobalAlpha
	}
	if o.Curve == (layout.Curve{}) {
		o.Curve = layout.Curve{A: DefaultCurveA, B: DefaultCurveB}
	}
	if o.Seed == 0 {
		o.Seed = layout.DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// localOptions assembles the layout options for the local stage.
func (o *Options) localOptions() layout.LocalOptions {
	return layout.LocalOptions{
		NEpochs:            o.NEpochs,
		InitialAlpha:       o.InitialAlpha,
		Gamma:              o.Gamma,
		NegativeSampleRate: o.NegativeSampleRate,
		Workers:            o.Workers,
		RandState:          layout.NewRandState(o.Seed),
		Snapshot:           o.Snapshot,
		SnapshotEvery:      o.SnapshotEvery,
		Labels:             o.Labels,
		Logger:             o.Logger,
	}
}

// globalOptions assembles the layout options for the global stage.
func (o *Options) globalOptions() layout.GlobalOptions {
	return layout.GlobalOptions{
		MaxIter:       o.MaxIter,
		Alpha:         o.GlobalAlpha,
		ComputeCost:   o.ComputeCost,
		Snapshot:      o.Snapshot,
		SnapshotEvery: o.SnapshotEvery,
		Labels:        o.Labels,
		Logger:        o.Logger,
	}
}

// LocalKeyOpts returns cache key options for the local stage.
func (o *Options) LocalKeyOpts() cache.EmbeddingKeyOpts {
	return cache.EmbeddingKeyOpts{
		NEpochs:            o.NEpochs,
		InitialAlpha:       o.InitialAlpha,
		Gamma:              o.Gamma,
		NegativeSampleRate: o.NegativeSampleRate,
		CurveA:             o.Curve.A,
		CurveB:             o.Curve.B,
		Seed:               o.Seed,
	}
}

// GlobalKeyOpts returns cache key options for the global stage. The cached
// global product includes the cost trace, so ComputeCost keys the entry too.
func (o *Options) GlobalKeyOpts() cache.EmbeddingKeyOpts {
	opts := o.LocalKeyOpts()
	opts.MaxIter = o.MaxIter
	opts.GlobalAlpha = o.GlobalAlpha
	opts.ComputeCost = o.ComputeCost
	return opts
}
