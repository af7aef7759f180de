// Package plot renders charts with gonum/plot.
package plot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"mcmcstats/domain/chart"
	"mcmcstats/internal"
)

var logger = internal.DefaultLogger.Component("PlotRenderer")

// Formats the renderer can write, by file extension
var Formats = []string{"png", "svg", "pdf"}

// Renderer implements ports.ChartRendererPort
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns an 8x6 inch renderer
func NewRenderer() *Renderer {
	return &Renderer{Width: 8 * vg.Inch, Height: 6 * vg.Inch}
}

// Render draws every series as a line with points. Colours follow the
// colour values and dash patterns the linetype values, each in first-seen
// order; series with neither are coloured individually.
func (r *Renderer) Render(ctx context.Context, c *chart.Chart, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !supported(ext) {
		return fmt.Errorf("unsupported plot format %q (want one of %s)", ext, strings.Join(Formats, ", "))
	}

	p := gonumplot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Add(plotter.NewGrid())

	colours := indexOf(c.Colours())
	linetypes := indexOf(c.Linetypes())
	for i, s := range c.Series {
		if len(s.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			xys[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Group, err)
		}

		colour := i
		if c.ColourLabel != "" {
			colour = colours[s.Colour]
		}
		line.Color = plotutil.Color(colour)
		line.Width = vg.Points(1)
		if c.LinetypeLabel != "" {
			line.Dashes = plotutil.Dashes(linetypes[s.Linetype])
		}
		points.Color = plotutil.Color(colour)
		points.Shape = plotutil.Shape(colour)
		points.Radius = vg.Points(2)

		p.Add(line, points)
		if name := legendName(c, s); name != "" {
			p.Legend.Add(name, line, points)
		}
	}
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	logger.Info("Wrote %d series to %s", len(c.Series), path)
	return nil
}

func supported(ext string) bool {
	for _, f := range Formats {
		if f == ext {
			return true
		}
	}
	return false
}

func indexOf(values []string) map[string]int {
	out := make(map[string]int, len(values))
	for i, v := range values {
		out[v] = i
	}
	return out
}

func legendName(c *chart.Chart, s chart.Series) string {
	var parts []string
	if c.ColourLabel != "" {
		parts = append(parts, c.ColourLabel+"="+s.Colour)
	}
	if c.LinetypeLabel != "" && c.LinetypeLabel != c.ColourLabel {
		parts = append(parts, c.LinetypeLabel+"="+s.Linetype)
	}
	if len(parts) == 0 {
		return s.Group
	}
	return strings.Join(parts, ", ")
}
