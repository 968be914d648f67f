package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HunRotation/umato/pkg/graph"
)

// =============================================================================
// Graph Command
// =============================================================================

// graphFlags collects the flags of the graph command.
type graphFlags struct {
	dotPath string
	svgPath string
	pngPath string
	weights bool
}

func (c *CLI) graphCommand() *cobra.Command {
	flags := &graphFlags{}

	cmd := &cobra.Command{
		Use:   "graph <graph.json>",
		Short: "Validate a neighbor graph and export it as DOT, SVG, or PNG",
		Long: `Graph checks a neighbor graph file against the optimizer's invariants
(parallel edge slices, index ranges, positive sampling weights, at least one
hub-eligible vertex) and prints its statistics. The graph can optionally be
exported in Graphviz DOT format or rendered directly.`,
		Example: `  # Validate and show stats
  umato graph iris_graph.json

  # Render with edge weights
  umato graph iris_graph.json --svg graph.svg --weights`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.dotPath, "dot", "", "write Graphviz DOT to this file")
	cmd.Flags().StringVar(&flags.svgPath, "svg", "", "render the graph as SVG to this file")
	cmd.Flags().StringVar(&flags.pngPath, "png", "", "render the graph as PNG to this file")
	cmd.Flags().BoolVar(&flags.weights, "weights", false, "label edges with their sampling weights")

	return cmd
}

func (c *CLI) runGraph(path string, flags *graphFlags) error {
	g, err := graph.ReadFile(path)
	if err != nil {
		return err
	}
	if err := g.Validate(g.VertexCount(), g.VertexCount()); err != nil {
		return err
	}

	printSuccess("Graph is valid")
	printStats(g.VertexCount(), g.EdgeCount(), false)
	printDetail("hub-eligible vertices: %d of %d", len(g.HubEligible()), g.VertexCount())
	c.Logger.Debug("graph loaded", "path", path, "vertices", g.VertexCount(), "edges", g.EdgeCount())

	if flags.dotPath == "" && flags.svgPath == "" && flags.pngPath == "" {
		return nil
	}

	dot := graph.ToDOT(g, graph.DOTOptions{Weights: flags.weights})

	if flags.dotPath != "" {
		if err := os.WriteFile(flags.dotPath, []byte(dot), 0644); err != nil {
			return fmt.Errorf("write DOT: %w", err)
		}
		printFile(flags.dotPath)
	}
	if flags.svgPath != "" {
		svg, err := graph.RenderSVG(dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(flags.svgPath, svg, 0644); err != nil {
			return fmt.Errorf("write SVG: %w", err)
		}
		printFile(flags.svgPath)
	}
	if flags.pngPath != "" {
		png, err := graph.RenderPNG(dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(flags.pngPath, png, 0644); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		printFile(flags.pngPath)
	}

	return nil
}
