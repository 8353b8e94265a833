// Package query is the read side of the model store: filtered search,
// neighbour expansion, reachability, temporal slicing, statistics and model
// validation. Every operation loads one consistent snapshot of the model and
// works on it in memory.
package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/metamodel"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// Reader is the part of the store the engine reads from.
type Reader interface {
	LoadSnapshot(ctx context.Context, modelID string) (*models.Snapshot, error)
	ListDefinitions(ctx context.Context, modelID, targetType string) ([]models.AttributeDefinition, error)
}

// Options tunes result sizes. Zero values select the defaults.
type Options struct {
	Logger       *zap.SugaredLogger
	DefaultLimit int // search and neighbors, 200
	MaxLimit     int // hard cap for search and neighbors, 500
	SliceLimit   int // temporal_slice cap per list, 2000
}

// Engine answers graph queries.
type Engine struct {
	r       Reader
	catalog *metamodel.Catalog
	opts    Options
	log     *zap.SugaredLogger
}

// New creates an Engine. A nil catalog falls back to the embedded one.
func New(r Reader, catalog *metamodel.Catalog, opts Options) *Engine {
	if catalog == nil {
		catalog = metamodel.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 200
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 500
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	if opts.SliceLimit <= 0 {
		opts.SliceLimit = 2000
	}
	return &Engine{r: r, catalog: catalog, opts: opts, log: opts.Logger}
}

// Catalog returns the metamodel the engine resolves layers and categories
// against.
func (e *Engine) Catalog() *metamodel.Catalog {
	return e.catalog
}

func (e *Engine) limit(n int) int {
	if n <= 0 {
		return e.opts.DefaultLimit
	}
	return min(n, e.opts.MaxLimit)
}
