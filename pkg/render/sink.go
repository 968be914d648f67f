package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// SVGSink writes optimizer snapshots as SVG files into a directory, one file
// per snapshot tag. It implements the layout package's Snapshot interface.
type SVGSink struct {
	dir  string
	opts Options
}

// NewSVGSink creates a sink writing into dir. The directory is created on
// the first emit.
func NewSVGSink(dir string, opts Options) *SVGSink {
	return &SVGSink{dir: dir, opts: opts}
}

// Emit renders the coordinates and writes them to <dir>/<tag>.svg.
func (s *SVGSink) Emit(ctx context.Context, coords [][]float64, labels []int, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	svg, err := RenderSVG(coords, labels, s.opts)
	if err != nil {
		return fmt.Errorf("render snapshot %s: %w", tag, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(s.dir, tag+".svg")
	if err := os.WriteFile(path, svg, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", tag, err)
	}
	return nil
}
