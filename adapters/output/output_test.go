package output

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
	"mcmcstats/domain/stats"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_TidyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	schema := draws.NewSchema(draws.FieldChain, draws.FieldTarget, draws.FieldValue, draws.FieldLogWeight, draws.FieldTime)
	in := draws.NewFrame(schema, []draws.Row{
		{Iteration: 1, Chain: 1, Target: 0, ParameterName: "x", Dimension: 1, Value: 0.5, LogWeight: -1.25, Time: 3},
		{Iteration: 2, Chain: 1, Target: 0, ParameterName: "x", Dimension: 1, Value: math.NaN(), LogWeight: 0, Time: 3},
	})
	require.NoError(t, WriteDraws(filepath.Join(dir, DefaultDrawsFile), in))

	out, err := NewLoader("").Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, schema, out.Schema())
	require.Equal(t, 2, out.Len())
	assert.Equal(t, in.Row(0), out.Row(0))
	assert.True(t, math.IsNaN(out.Row(1).Value), "NA reads back as NaN")
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader("chain.csv").Load(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestTidyFrame_RequiredColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "draws.csv", "Iteration,ParameterName,Value\n1,x,2\n")
	data, err := NewDataReader(path).ReadData()
	require.NoError(t, err)

	_, err = ToFrame(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingColumn)
	assert.Contains(t, err.Error(), "Dimension")
}

func TestWideFrame(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "draws.csv",
		"Chain,mu,theta_1,theta[2],Time\n"+
			"a,1,10,20,5\n"+
			"a,2,11,21,5\n"+
			"b,3,12,22,5\n")
	data, err := NewDataReader(path).ReadData()
	require.NoError(t, err)
	assert.False(t, IsTidy(data))

	f, err := ToFrame(data)
	require.NoError(t, err)
	assert.Equal(t, draws.Standard, f.Schema())
	assert.Equal(t, 9, f.Len())

	chainB := f.Filter(func(r draws.Row) bool { return r.Chain == 2 })
	require.Equal(t, 3, chainB.Len())
	assert.Equal(t, 1, chainB.Row(0).Iteration, "iterations restart per chain")

	theta2 := f.Filter(func(r draws.Row) bool { return r.ParameterName == "theta" && r.Dimension == 2 })
	assert.Equal(t, []float64{20, 21, 22}, theta2.Values())
}

func TestWideFrame_RequiresChain(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "draws.csv", "mu\n1\n")
	data, err := NewDataReader(path).ReadData()
	require.NoError(t, err)

	_, err = ToFrame(data)
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}

func TestSplitVariable(t *testing.T) {
	cases := map[string]struct {
		name string
		dim  int
	}{
		"mu":        {"mu", 1},
		"beta_3":    {"beta", 3},
		"beta[12]":  {"beta", 12},
		"log_sigma": {"log_sigma", 1},
	}
	for in, want := range cases {
		name, dim := SplitVariable(in)
		assert.Equal(t, want.name, name, in)
		assert.Equal(t, want.dim, dim, in)
	}
}

func TestFSLister_NaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"rep10", "rep2", "rep1"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, n), 0o755))
	}
	writeFile(t, dir, "notes.txt", "not a result set")

	got, err := FSLister{}.ListSubdirectories(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "rep1", filepath.Base(got[0]))
	assert.Equal(t, "rep2", filepath.Base(got[1]))
	assert.Equal(t, "rep10", filepath.Base(got[2]))
}

func sampleTable(t *testing.T) *stats.Table {
	tbl, err := stats.NewTable(
		[]stats.Column{stats.StringColumn("Method"), stats.NumberColumn("sigma"), stats.NumberColumn("Mean_mean")},
		[][]stats.Cell{
			{stats.Str("rwm"), stats.Num(0.5), stats.Num(1.25)},
			{stats.Str("mala"), stats.Num(1), stats.Num(math.NaN())},
		})
	require.NoError(t, err)
	return tbl
}

func TestTable_RoundTrip(t *testing.T) {
	for _, name := range []string{"table.csv", "table.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteTable(path, sampleTable(t)))

			back, err := ReadTable(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"Method", "sigma", "Mean_mean"}, back.Names())
			_, _, ok := back.Column("Method")
			require.True(t, ok)

			col, _, _ := back.Column("sigma")
			assert.Equal(t, stats.KindNumber, col.Kind)
			v, err := back.Float(0, "Mean_mean")
			require.NoError(t, err)
			assert.Equal(t, 1.25, v)
			v, err = back.Float(1, "Mean_mean")
			require.NoError(t, err)
			assert.True(t, math.IsNaN(v))
		})
	}
}
