package graph

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Weights includes the epochs-per-sample weight as an edge label.
	Weights bool
}

// hub label → fill color for DOT export. Primary hubs stand out, secondary
// hubs are muted, non-hubs are grey.
var hubFill = map[int]string{
	0: "lightgrey",
	1: "lightblue",
	2: "lavender",
}

// ToDOT converts a neighbor graph to Graphviz DOT format for inspection.
// Vertices are colored by hub label. The resulting DOT string can be
// rendered with [RenderSVG] or [RenderPNG].
func ToDOT(g *Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=10];\n")
	buf.WriteString("\n")

	for i, h := range g.Hubs {
		fill, ok := hubFill[h]
		if !ok {
			fill = "white"
		}
		fmt.Fprintf(&buf, "  %d [fillcolor=%s, label=\"%d\"];\n", i, fill, i)
	}

	buf.WriteString("\n")
	for i := range g.Head {
		if opts.Weights {
			fmt.Fprintf(&buf, "  %d -- %d [label=\"%.3g\"];\n", g.Head[i], g.Tail[i], g.EpochsPerSample[i])
		} else {
			fmt.Fprintf(&buf, "  %d -- %d;\n", g.Head[i], g.Tail[i])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
