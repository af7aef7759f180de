package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"unicode"

	"mcmcstats/domain/draws"
	"mcmcstats/internal"
)

var logger = internal.DefaultLogger.Component("DataReader")

// DefaultDrawsFile is the tidy output file a sampler writes into its result directory
const DefaultDrawsFile = "draws.csv"

// Loader reads the draws file of one result directory
type Loader struct {
	drawsFile string
}

// NewLoader creates a loader looking for drawsFile, then draws.csv and draws.xlsx
func NewLoader(drawsFile string) *Loader {
	if drawsFile == "" {
		drawsFile = DefaultDrawsFile
	}
	return &Loader{drawsFile: drawsFile}
}

// Load implements ports.RunLoaderPort
func (l *Loader) Load(ctx context.Context, dir string) (*draws.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.locate(dir)
	if err != nil {
		return nil, err
	}
	data, err := NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}
	f, err := ToFrame(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("Loaded %d draws from %s (schema %s)", f.Len(), path, f.Schema())
	return f, nil
}

func (l *Loader) locate(dir string) (string, error) {
	seen := make(map[string]bool)
	for _, name := range []string{l.drawsFile, DefaultDrawsFile, "draws.xlsx"} {
		if seen[name] {
			continue
		}
		seen[name] = true
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no draws file (%s) in %s", l.drawsFile, dir)
}

// FSLister lists result subdirectories on the local filesystem
type FSLister struct{}

// ListSubdirectories implements ports.DirectoryListerPort. Directories are
// returned in natural order, so rep2 precedes rep10.
func (FSLister) ListSubdirectories(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool { return NaturalLess(names[i], names[j]) })

	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(path, n)
	}
	return out, nil
}

// NaturalLess compares strings treating trailing digit runs as numbers
func NaturalLess(a, b string) bool {
	pa, na := splitTrailingNumber(a)
	pb, nb := splitTrailingNumber(b)
	if pa != pb || na < 0 || nb < 0 {
		return a < b
	}
	return na < nb
}

func splitTrailingNumber(s string) (string, int) {
	i := len(s)
	for i > 0 && unicode.IsDigit(rune(s[i-1])) {
		i--
	}
	if i == len(s) {
		return s, -1
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}
