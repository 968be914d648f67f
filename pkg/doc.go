// Package pkg provides the core libraries for umato embedding optimization.
//
// # Overview
//
// Umato optimizes low-dimensional embeddings of point datasets in two
// stages: a stochastic local pass over a nearest-neighbor graph, then a
// dense global refinement against a pairwise similarity matrix. The pkg
// directory is organized into four main areas:
//
//  1. [layout] - The two-stage optimizer (local SGD kernel, global refiner)
//  2. [pipeline] - Orchestration (local → global, caching, stats)
//  3. [graph], [dataset], [matrix] - Input containers and dense primitives
//  4. [cache], [store], [render] - Infrastructure (result cache, run
//     archive, scatter plots)
//
// # Architecture
//
// The typical data flow through umato:
//
//	CSV dataset + neighbor graph JSON
//	         ↓
//	    [layout] local pass (edge-sampled SGD, hub-modulated)
//	         ↓
//	    [layout] global pass (full-pairwise refinement, DTM cost)
//	         ↓
//	    CSV embedding / SVG scatter / persisted run
//
// # Quick Start
//
// Run the pipeline on prepared inputs:
//
//	import (
//	    "context"
//	    "github.com/HunRotation/umato/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Coords: initial,
//	    Graph:  g,
//	    P:      similarity,
//	})
//
// Supporting packages: [errors] for structured error codes, [config] for
// TOML run configuration, [observability] for instrumentation hooks, and
// [buildinfo] for version stamping.
package pkg
