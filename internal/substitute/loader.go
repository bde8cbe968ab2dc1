package substitute

import (
	"context"
	"fmt"
	"os"

	"github.com/sokol-samples/webpage/internal/cachemanager"
	"github.com/sokol-samples/webpage/internal/log"
)

// Loader reads template files once and renders them many times.
type Loader struct {
	files *cachemanager.ReadThroughCache[string, string]
}

// NewLoader creates a Loader with an in-memory template cache.
func NewLoader() *Loader {
	cache := cachemanager.NewInMemoryCacheManager[string](
		"templates",
		cachemanager.DefaultExpiration,
		cachemanager.DefaultCleanupInterval,
	)
	return &Loader{
		files: cachemanager.NewReadThroughCache[string, string](cache, readTemplate, cachemanager.DefaultExpiration),
	}
}

func readTemplate(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // template path comes from the project asset dir
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}
	log.Debug(log.CatCache, "loaded template", "path", path, "bytes", len(data))
	return string(data), nil
}

// Load returns the contents of the template at path.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	return l.files.Get(ctx, path, path)
}

// RenderFile loads the template at path and substitutes bindings into it.
func (l *Loader) RenderFile(ctx context.Context, path string, bindings Bindings) (string, error) {
	text, err := l.Load(ctx, path)
	if err != nil {
		return "", err
	}
	for _, name := range Placeholders(text) {
		if _, ok := bindings[name]; !ok {
			log.Debug(log.CatCache, "placeholder left verbatim", "template", path, "name", name)
		}
	}
	return Render(text, bindings), nil
}

// Invalidate forgets every loaded template, e.g. after assets change on disk.
func (l *Loader) Invalidate(ctx context.Context) {
	l.files.Invalidate(ctx)
}

// Stats reports template cache hits and misses.
func (l *Loader) Stats() cachemanager.Stats {
	return l.files.Stats()
}
