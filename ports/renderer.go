package ports

import (
	"context"

	"mcmcstats/domain/chart"
)

// ChartRendererPort draws a chart to a file; the format follows the extension
type ChartRendererPort interface {
	Render(ctx context.Context, c *chart.Chart, path string) error
}
