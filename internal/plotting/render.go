// Package plotting maps an aggregated statistics table onto a line chart.
package plotting

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mcmcstats/domain/chart"
	"mcmcstats/domain/core"
	"mcmcstats/domain/stats"
)

// Encoding selects the table columns drawn by Render
type Encoding struct {
	X        string
	Y        string
	Linetype string // optional
	Colour   string // optional
	LogX     bool
	LogY     bool
}

// Render builds a line-plus-point chart of enc.Y against enc.X. Rows are
// split into series by every column preceding ParameterName (other than the
// x column) and by the colour and linetype columns, so unrelated
// configurations are never joined by a line. Log axes use the natural log.
func Render(t *stats.Table, enc Encoding) (*chart.Chart, error) {
	xi, err := numericColumn(t, enc.X)
	if err != nil {
		return nil, err
	}
	yi, err := numericColumn(t, enc.Y)
	if err != nil {
		return nil, err
	}

	var split []int
	if _, pi, ok := t.Column(stats.ColParameterName); ok {
		for i := 0; i < pi; i++ {
			if i != xi {
				split = append(split, i)
			}
		}
	}
	colourIdx, err := optionalColumn(t, enc.Colour)
	if err != nil {
		return nil, err
	}
	linetypeIdx, err := optionalColumn(t, enc.Linetype)
	if err != nil {
		return nil, err
	}

	cols := t.Columns()
	label := func(r int, idx []int) string {
		parts := make([]string, 0, len(idx))
		for _, i := range idx {
			parts = append(parts, cols[i].Name+"="+t.Cell(r, i).Format(cols[i].Kind))
		}
		return strings.Join(parts, ",")
	}
	value := func(r, i int) string {
		if i < 0 {
			return ""
		}
		return t.Cell(r, i).Format(cols[i].Kind)
	}

	c := &chart.Chart{
		Title:         fmt.Sprintf("%s vs %s", enc.Y, enc.X),
		XLabel:        axisLabel(enc.X, enc.LogX),
		YLabel:        axisLabel(enc.Y, enc.LogY),
		ColourLabel:   enc.Colour,
		LinetypeLabel: enc.Linetype,
		LogX:          enc.LogX,
		LogY:          enc.LogY,
	}
	index := make(map[string]int)
	for r := 0; r < t.NumRows(); r++ {
		x, y := t.Cell(r, xi).Num, t.Cell(r, yi).Num
		if x, err = transform("x", x, enc.LogX); err != nil {
			return nil, err
		}
		if y, err = transform("y", y, enc.LogY); err != nil {
			return nil, err
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}

		s := chart.Series{Group: label(r, split), Colour: value(r, colourIdx), Linetype: value(r, linetypeIdx)}
		id := s.Group + "\x00" + s.Colour + "\x00" + s.Linetype
		i, ok := index[id]
		if !ok {
			i = len(c.Series)
			index[id] = i
			c.Series = append(c.Series, s)
		}
		c.Series[i].Points = append(c.Series[i].Points, chart.Point{X: x, Y: y})
	}

	for i := range c.Series {
		pts := c.Series[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
	}
	return c, nil
}

func numericColumn(t *stats.Table, name string) (int, error) {
	col, i, ok := t.Column(name)
	if !ok {
		return -1, core.NewMissingColumnError(name)
	}
	if col.Kind != stats.KindNumber {
		return -1, fmt.Errorf("column %q is not numeric", name)
	}
	return i, nil
}

func optionalColumn(t *stats.Table, name string) (int, error) {
	if name == "" {
		return -1, nil
	}
	_, i, ok := t.Column(name)
	if !ok {
		return -1, core.NewMissingColumnError(name)
	}
	return i, nil
}

// transform applies the natural log when requested; NaN passes through
func transform(axis string, v float64, logScale bool) (float64, error) {
	if !logScale || math.IsNaN(v) {
		return v, nil
	}
	if v <= 0 {
		return 0, core.NewNonPositiveLogInputError(axis, v)
	}
	return math.Log(v), nil
}

func axisLabel(name string, logScale bool) string {
	if logScale {
		return "log(" + name + ")"
	}
	return name
}
