package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/HunRotation/umato/pkg/errors"
)

// palette is the categorical color cycle for class labels. Labels index the
// palette modulo its length; label-free points use neutralColor.
var palette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
	"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
}

const neutralColor = "#4E79A7"

// Options control scatter plot geometry.
type Options struct {
	// Width and Height are the output size in pixels.
	Width  int
	Height int

	// PointSize is the marker radius in pixels.
	PointSize float64

	// Margin is the padding around the data extent in pixels.
	Margin float64
}

// DefaultOptions returns the standard 800x800 plot geometry.
func DefaultOptions() Options {
	return Options{
		Width:     800,
		Height:    800,
		PointSize: 2.5,
		Margin:    40,
	}
}

// RenderSVG draws the embedding as an SVG scatter plot. coords must be a
// two-column matrix; labels may be nil or must have one entry per point.
func RenderSVG(coords [][]float64, labels []int, opts Options) ([]byte, error) {
	proj, err := newProjection(coords, labels, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="#ffffff"/>`+"\n", opts.Width, opts.Height)
	for i, p := range coords {
		x, y := proj.apply(p[0], p[1])
		fmt.Fprintf(&buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
			x, y, opts.PointSize, colorFor(labels, i))
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// RenderPNG draws the embedding as a PNG scatter plot.
func RenderPNG(coords [][]float64, labels []int, opts Options) ([]byte, error) {
	proj, err := newProjection(coords, labels, opts)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	for i, p := range coords {
		x, y := proj.apply(p[0], p[1])
		dc.SetHexColor(colorFor(labels, i))
		dc.DrawCircle(x, y, opts.PointSize)
		dc.Fill()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func colorFor(labels []int, i int) string {
	if labels == nil {
		return neutralColor
	}
	l := labels[i]
	if l < 0 {
		l = -l
	}
	return palette[l%len(palette)]
}

// projection maps data coordinates into the pixel viewport, preserving the
// aspect ratio of the embedding.
type projection struct {
	minX, minY float64
	scale      float64
	offX, offY float64
}

func newProjection(coords [][]float64, labels []int, opts Options) (*projection, error) {
	if len(coords) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no points to render")
	}
	for i, p := range coords {
		if len(p) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidShape, "point %d has %d dims, scatter plots need 2", i, len(p))
		}
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "point %d has non-finite coordinates", i)
		}
	}
	if labels != nil && len(labels) != len(coords) {
		return nil, errors.New(errors.ErrCodeInvalidShape, "%d labels for %d points", len(labels), len(coords))
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "plot size %dx%d must be positive", opts.Width, opts.Height)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range coords {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}

	spanX := maxX - minX
	spanY := maxY - minY
	// Degenerate extents (single point, collinear axis) still render: the
	// span collapses to a unit box around the data.
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	innerW := float64(opts.Width) - 2*opts.Margin
	innerH := float64(opts.Height) - 2*opts.Margin
	scale := math.Min(innerW/spanX, innerH/spanY)

	return &projection{
		minX:  minX,
		minY:  minY,
		scale: scale,
		offX:  opts.Margin + (innerW-spanX*scale)/2,
		offY:  opts.Margin + (innerH-spanY*scale)/2,
	}, nil
}

func (p *projection) apply(x, y float64) (float64, float64) {
	return p.offX + (x-p.minX)*p.scale, p.offY + (y-p.minY)*p.scale
}
