// Package report renders an aggregated statistics table as markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"mcmcstats/domain/run"
	"mcmcstats/domain/stats"
)

// Report is one summary page
type Report struct {
	Title    string
	Manifest *run.Manifest // optional
	Table    *stats.Table
	Charts   []string // image paths relative to the report
}

// Markdown renders the report as GitHub-flavoured markdown
func (r Report) Markdown() []byte {
	var b bytes.Buffer
	if r.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", r.Title)
	}

	if m := r.Manifest; m != nil {
		b.WriteString("## Run\n\n")
		fmt.Fprintf(&b, "- Run ID: `%s`\n", m.RunID)
		fmt.Fprintf(&b, "- Experiment: %s\n", m.Experiment)
		fmt.Fprintf(&b, "- Models: %s\n", strings.Join(m.Models, ", "))
		fmt.Fprintf(&b, "- Base seed: %d, reps: %d, strategy: %s\n", m.BaseSeed, m.Reps, m.Strategy)
		fmt.Fprintf(&b, "- Fingerprint: `%s`\n\n", m.Fingerprint.Fingerprint.Short())
	}

	for _, c := range r.Charts {
		fmt.Fprintf(&b, "![%s](%s)\n\n", filepath.Base(c), filepath.ToSlash(c))
	}

	if r.Table != nil {
		b.WriteString("## Statistics\n\n")
		writeTable(&b, r.Table)
	}
	return b.Bytes()
}

func writeTable(b *bytes.Buffer, t *stats.Table) {
	cols := t.Columns()
	b.WriteString("|")
	for _, c := range cols {
		b.WriteString(" " + escape(c.Name) + " |")
	}
	b.WriteString("\n|")
	for _, c := range cols {
		if c.Kind == stats.KindNumber {
			b.WriteString(" ---: |")
		} else {
			b.WriteString(" --- |")
		}
	}
	b.WriteString("\n")
	for r := 0; r < t.NumRows(); r++ {
		b.WriteString("|")
		for i, c := range cols {
			b.WriteString(" " + cell(t.Cell(r, i), c.Kind) + " |")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// cell prints numbers with four significant digits
func cell(c stats.Cell, k stats.Kind) string {
	if k == stats.KindString {
		return escape(c.Str)
	}
	switch {
	case math.IsNaN(c.Num):
		return "NA"
	case math.IsInf(c.Num, 1):
		return "Inf"
	case math.IsInf(c.Num, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(c.Num, 'g', 4, 64)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML renders the markdown as a complete HTML page
func (r Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: r.Title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(r.Markdown(), p, renderer)
}

// Write stores report.md and report.html in dir
func (r Report) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "report.md"), r.Markdown(), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "report.html"), r.HTML(), 0o644)
}
