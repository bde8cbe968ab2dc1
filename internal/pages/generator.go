// Package pages writes the standalone page of every sample variant and
// copies the compiled artifacts next to it.
package pages

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sokol-samples/webpage/internal/artifacts"
	"github.com/sokol-samples/webpage/internal/flags"
	"github.com/sokol-samples/webpage/internal/fsutil"
	"github.com/sokol-samples/webpage/internal/log"
	"github.com/sokol-samples/webpage/internal/paths"
	"github.com/sokol-samples/webpage/internal/presentation"
	"github.com/sokol-samples/webpage/internal/samples"
	"github.com/sokol-samples/webpage/internal/substitute"
)

// PageTemplate is the per-sample template in the asset dir.
const PageTemplate = "wasm.html"

// Template bindings.
const (
	BindName   = "name"
	BindProg   = "prog"
	BindSource = "source"
)

// Result counts what a page run produced.
type Result struct {
	Pages     int
	Artifacts int
	Skipped   int // variants not rendered because gate-pages is on and they were not built
	Files     fsutil.Tally
}

// Generator renders sample pages for one deployment.
type Generator struct {
	paths     paths.Deployment
	sourceURL string
	locator   *artifacts.Locator
	loader    *substitute.Loader
	console   *presentation.Console
	flags     *flags.Registry
}

// NewGenerator creates a Generator. sourceURL prefixes each sample's source
// file name in the rendered page.
func NewGenerator(
	d paths.Deployment,
	sourceURL string,
	locator *artifacts.Locator,
	loader *substitute.Loader,
	console *presentation.Console,
	flagRegistry *flags.Registry,
) *Generator {
	return &Generator{
		paths:     d,
		sourceURL: sourceURL,
		locator:   locator,
		loader:    loader,
		console:   console,
		flags:     flagRegistry,
	}
}

// Bindings returns the template values for e built as v.
func (g *Generator) Bindings(e samples.Entry, v samples.Variant) substitute.Bindings {
	return substitute.Bindings{
		BindName:   e.Name,
		BindProg:   v.Program(e.Name),
		BindSource: g.sourceURL + e.Source,
	}
}

// Generate copies every deployed artifact of every entry into the platform
// dir and writes wasm/{name}-{variant}.html for each variant.
//
// Pages are written whether or not the variant was built, unless the
// gate-pages flag is on.
func (g *Generator) Generate(ctx context.Context, registry *samples.Registry) (Result, error) {
	var res Result

	outDir := g.paths.PlatformDir()
	if err := fsutil.EnsureDir(outDir); err != nil {
		return res, err
	}
	gate := g.flags.Enabled(flags.FlagGatePages)

	for _, e := range registry.Entries() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		g.console.Progress("generate wasm HTML page: %s", e.Name)

		for _, v := range samples.Variants {
			for _, ext := range g.locator.Present(e.Name, v) {
				copied, err := fsutil.CopyFile(g.locator.Path(e.Name, v, ext), filepath.Join(outDir, v.Program(e.Name)+"."+ext))
				if err != nil {
					return res, fmt.Errorf("copying artifact: %w", err)
				}
				res.Artifacts++
				res.Files.Add(copied)
			}

			if gate && !g.locator.Exists(e.Name, v) {
				log.Debug(log.CatPages, "Skipping page of unbuilt variant", "sample", e.Name, "variant", v)
				res.Skipped++
				continue
			}

			page, err := g.loader.RenderFile(ctx, g.paths.Asset(PageTemplate), g.Bindings(e, v))
			if err != nil {
				return res, fmt.Errorf("rendering page for %s: %w", v.Program(e.Name), err)
			}
			written, err := fsutil.WriteFile(filepath.Join(outDir, v.PageName(e.Name)), []byte(page))
			if err != nil {
				return res, fmt.Errorf("writing page for %s: %w", v.Program(e.Name), err)
			}
			res.Pages++
			res.Files.Add(written)
			log.Debug(log.CatPages, "Wrote page", "path", written.Path, "change", written.Change)
		}
	}

	log.Info(log.CatPages, "Generated pages", "pages", res.Pages, "artifacts", res.Artifacts,
		"skipped", res.Skipped, "from", g.locator.Dir())
	return res, nil
}
