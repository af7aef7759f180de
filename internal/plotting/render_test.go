package plotting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/domain/core"
	"mcmcstats/domain/stats"
)

// Two methods, two step sizes, two parameters each.
func aggregated(t *testing.T) *stats.Table {
	cols := []stats.Column{
		stats.StringColumn("Method"), stats.NumberColumn("step"), stats.NumberColumn("Chain"),
		stats.StringColumn("ParameterName"), stats.NumberColumn("Dimension"), stats.NumberColumn("ESS_mean"),
	}
	var rows [][]stats.Cell
	for _, m := range []string{"rwm", "mala"} {
		for _, step := range []float64{0.5, 0.1} {
			for _, p := range []string{"a", "b"} {
				rows = append(rows, []stats.Cell{
					stats.Str(m), stats.Num(step), stats.Int(1), stats.Str(p), stats.Int(1), stats.Num(step * 100),
				})
			}
		}
	}
	tbl, err := stats.NewTable(cols, rows)
	require.NoError(t, err)
	return tbl
}

func TestRender_Groups(t *testing.T) {
	c, err := Render(aggregated(t), Encoding{X: "step", Y: "ESS_mean", Colour: "ParameterName", Linetype: "Method"})
	require.NoError(t, err)

	require.Len(t, c.Series, 4, "method x parameter")
	for _, s := range c.Series {
		require.Len(t, s.Points, 2)
		assert.Less(t, s.Points[0].X, s.Points[1].X, "points are ordered along x")
	}
	assert.Equal(t, "Method=rwm,Chain=1", c.Series[0].Group)
	assert.Equal(t, []string{"a", "b"}, c.Colours())
	assert.Equal(t, []string{"rwm", "mala"}, c.Linetypes())
}

func TestRender_Log(t *testing.T) {
	c, err := Render(aggregated(t), Encoding{X: "step", Y: "ESS_mean", LogX: true, LogY: true})
	require.NoError(t, err)
	assert.Equal(t, "log(step)", c.XLabel)
	assert.InDelta(t, math.Log(0.1), c.Series[0].Points[0].X, 1e-12)
	assert.InDelta(t, math.Log(10), c.Series[0].Points[0].Y, 1e-12)
}

func TestRender_NonPositiveLog(t *testing.T) {
	tbl, err := stats.NewTable(
		[]stats.Column{stats.NumberColumn("x"), stats.NumberColumn("y")},
		[][]stats.Cell{{stats.Num(1), stats.Num(2)}, {stats.Num(0), stats.Num(3)}})
	require.NoError(t, err)

	_, err = Render(tbl, Encoding{X: "x", Y: "y", LogX: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNonPositiveLogInput)

	c, err := Render(tbl, Encoding{X: "x", Y: "y", LogY: true})
	require.NoError(t, err)
	require.Len(t, c.Series, 1, "no ParameterName column: one series")
	assert.Len(t, c.Series[0].Points, 2)
}

func TestRender_MissingColumn(t *testing.T) {
	_, err := Render(aggregated(t), Encoding{X: "sigma", Y: "ESS_mean"})
	assert.ErrorIs(t, err, core.ErrMissingColumn)

	_, err = Render(aggregated(t), Encoding{X: "step", Y: "ESS_mean", Colour: "nope"})
	assert.ErrorIs(t, err, core.ErrMissingColumn)

	_, err = Render(aggregated(t), Encoding{X: "Method", Y: "ESS_mean"})
	assert.Error(t, err)
}
