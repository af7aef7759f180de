// Package chart holds the renderer-neutral description of a line graph.
package chart

// Point is one (x, y) observation
type Point struct {
	X float64
	Y float64
}

// Series is one connected line with its points. Group names the identifying
// column values the series was split on; Colour and Linetype carry the values
// of the optional aesthetic columns ("" when unused).
type Series struct {
	Group    string
	Colour   string
	Linetype string
	Points   []Point
}

// Chart is a line-plus-point graph
type Chart struct {
	Title         string
	XLabel        string
	YLabel        string
	ColourLabel   string
	LinetypeLabel string
	LogX          bool
	LogY          bool
	Series        []Series
}

// Colours returns the distinct colour values in first-seen order
func (c *Chart) Colours() []string {
	return distinct(c.Series, func(s Series) string { return s.Colour })
}

// Linetypes returns the distinct linetype values in first-seen order
func (c *Chart) Linetypes() []string {
	return distinct(c.Series, func(s Series) string { return s.Linetype })
}

func distinct(series []Series, f func(Series) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range series {
		v := f(s)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
