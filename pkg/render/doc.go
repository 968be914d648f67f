// Package render draws 2D embeddings as scatter plots.
//
// # Overview
//
// This package turns optimized coordinate matrices into visual outputs:
//
//   - SVG scatter plots via [RenderSVG]
//   - PNG scatter plots via [RenderPNG]
//   - Snapshot sinks (in [SVGSink]) that capture intermediate layouts
//     during optimization for inspection and animation
//
// Points are colored by their class label using a fixed categorical
// palette; unlabeled points share a single neutral color.
//
// # Usage
//
//	svg, err := render.RenderSVG(coords, labels, render.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("embedding.svg", svg, 0644)
//
// For progress visualization, wire a sink into the optimizer options:
//
//	sink := render.NewSVGSink("snapshots", render.DefaultOptions())
//	opts := layout.LocalOptions{Snapshot: sink, SnapshotEvery: 10}
//
// Neighbor graph rendering (DOT, Graphviz) lives in the graph package next
// to the structure it draws.
package render
