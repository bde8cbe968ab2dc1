// Package gallery renders the samples index page: one thumbnail per sample,
// linking to the sample's generated page and, when built, its UI variant.
package gallery

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/sokol-samples/webpage/internal/artifacts"
	"github.com/sokol-samples/webpage/internal/fsutil"
	"github.com/sokol-samples/webpage/internal/log"
	"github.com/sokol-samples/webpage/internal/paths"
	"github.com/sokol-samples/webpage/internal/presentation"
	"github.com/sokol-samples/webpage/internal/samples"
	"github.com/sokol-samples/webpage/internal/substitute"
)

const (
	// IndexTemplate is both the template name in the asset dir and the output name.
	IndexTemplate = "index.html"
	// SamplesPlaceholder receives the concatenated thumbnail blocks.
	SamplesPlaceholder = "samples"
	// FallbackImage stands in for samples without a screenshot.
	FallbackImage = "dummy.jpg"
	// Favicon is copied alongside the index.
	Favicon = "favicon.png"
)

// StaticAssets are copied into every deploy regardless of the sample list.
var StaticAssets = []string{FallbackImage, Favicon}

// Thumbnail is the data behind one gallery block.
type Thumbnail struct {
	Name  string
	Image string
	URL   string
	UIURL string // empty when the UI variant was not built
}

// Result counts what a gallery deploy produced.
type Result struct {
	Thumbnails  int
	UILinks     int
	Screenshots int
	Files       fsutil.Tally
}

// Composer builds the gallery for one deployment.
type Composer struct {
	paths   paths.Deployment
	locator *artifacts.Locator
	loader  *substitute.Loader
	console *presentation.Console
}

// NewComposer creates a Composer.
func NewComposer(d paths.Deployment, locator *artifacts.Locator, loader *substitute.Loader, console *presentation.Console) *Composer {
	return &Composer{
		paths:   d,
		locator: locator,
		loader:  loader,
		console: console,
	}
}

// Thumbnail resolves the gallery block for e.
func (c *Composer) Thumbnail(e samples.Entry) Thumbnail {
	image := e.Name + ".jpg"
	if !fsutil.Exists(c.paths.Asset(image)) {
		image = FallbackImage
	}
	th := Thumbnail{
		Name:  e.Name,
		Image: image,
		URL:   pageURL(e.Name, samples.VariantPlain),
	}
	if c.locator.Exists(e.Name, samples.VariantUI) {
		th.UIURL = pageURL(e.Name, samples.VariantUI)
	}
	return th
}

func pageURL(name string, v samples.Variant) string {
	return path.Join(paths.PlatformDirName(), v.PageName(name))
}

// Fragment renders th as HTML. Values are inserted verbatim, the same as
// page bindings.
func Fragment(th Thumbnail) string {
	var b strings.Builder
	b.WriteString("<div class=\"thumb\">\n")
	fmt.Fprintf(&b, "  <div class=\"thumb-title\">%s</div>\n", th.Name)
	if th.UIURL != "" {
		fmt.Fprintf(&b, "<a class=\"img-btn-link\" href=\"%s\"><div class=\"img-btn\">UI</div></a>", th.UIURL)
	}
	fmt.Fprintf(&b, "  <div class=\"img-frame\"><a href=\"%s\"><img class=\"image\" src=\"%s\"></img></a></div>\n",
		th.URL, th.Image)
	b.WriteString("</div>\n")
	return b.String()
}

// Compose renders one block per entry, in order, and concatenates them.
func (c *Composer) Compose(entries []samples.Entry) (string, []Thumbnail) {
	var b strings.Builder
	thumbs := make([]Thumbnail, 0, len(entries))
	for _, e := range entries {
		c.console.Progress("adding thumbnail for %s", e.Name)
		th := c.Thumbnail(e)
		log.Debug(log.CatGallery, "thumbnail", "sample", e.Name, "image", th.Image, "ui", th.UIURL != "")
		thumbs = append(thumbs, th)
		b.WriteString(Fragment(th))
	}
	return b.String(), thumbs
}

// Deploy writes index.html, copies the static assets and copies every
// sample screenshot that exists. The webpage directory must exist.
func (c *Composer) Deploy(ctx context.Context, registry *samples.Registry) (Result, error) {
	var res Result
	entries := registry.Entries()

	content, thumbs := c.Compose(entries)
	res.Thumbnails = len(thumbs)
	for _, th := range thumbs {
		if th.UIURL != "" {
			res.UILinks++
		}
	}

	page, err := c.loader.RenderFile(ctx, c.paths.Asset(IndexTemplate), substitute.Bindings{
		SamplesPlaceholder: content,
	})
	if err != nil {
		return res, fmt.Errorf("rendering gallery: %w", err)
	}
	written, err := fsutil.WriteFile(filepath.Join(c.paths.WebpageDir, IndexTemplate), []byte(page))
	if err != nil {
		return res, fmt.Errorf("writing gallery: %w", err)
	}
	res.Files.Add(written)
	log.Info(log.CatGallery, "wrote index", "path", written.Path, "change", written.Change,
		"inserted", written.Inserted, "deleted", written.Deleted)

	for _, name := range StaticAssets {
		c.console.Progress("copy file: %s", name)
		copied, err := fsutil.CopyFile(c.paths.Asset(name), filepath.Join(c.paths.WebpageDir, name))
		if err != nil {
			return res, fmt.Errorf("copying static asset: %w", err)
		}
		res.Files.Add(copied)
	}

	n, tally, err := c.CopyScreenshots(entries)
	res.Screenshots = n
	res.Files.Merge(tally)
	if err != nil {
		return res, err
	}
	return res, nil
}

// CopyScreenshots copies {name}.jpg for every entry that has one.
func (c *Composer) CopyScreenshots(entries []samples.Entry) (int, fsutil.Tally, error) {
	var (
		tally fsutil.Tally
		n     int
	)
	for _, e := range entries {
		image := e.Name + ".jpg"
		src := c.paths.Asset(image)
		if !fsutil.Exists(src) {
			continue
		}
		c.console.Progress("copy screenshot: %s", image)
		copied, err := fsutil.CopyFile(src, filepath.Join(c.paths.WebpageDir, image))
		if err != nil {
			return n, tally, fmt.Errorf("copying screenshot: %w", err)
		}
		tally.Add(copied)
		n++
	}
	return n, tally, nil
}
