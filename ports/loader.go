package ports

import (
	"context"

	"mcmcstats/domain/draws"
)

// RunLoaderPort reads the output of one run, tidy or legacy wide format,
// normalised to tidy draws
type RunLoaderPort interface {
	Load(ctx context.Context, dir string) (*draws.Frame, error)
}

// DirectoryListerPort lists result subdirectories in discovery order
type DirectoryListerPort interface {
	ListSubdirectories(path string) ([]string, error)
}
