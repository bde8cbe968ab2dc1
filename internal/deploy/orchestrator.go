// Package deploy sequences a site build: output directory setup, optional
// compilation, gallery and per-sample pages.
package deploy

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sokol-samples/webpage/internal/artifacts"
	"github.com/sokol-samples/webpage/internal/flags"
	"github.com/sokol-samples/webpage/internal/fsutil"
	"github.com/sokol-samples/webpage/internal/gallery"
	"github.com/sokol-samples/webpage/internal/history"
	"github.com/sokol-samples/webpage/internal/log"
	"github.com/sokol-samples/webpage/internal/pages"
	"github.com/sokol-samples/webpage/internal/paths"
	"github.com/sokol-samples/webpage/internal/presentation"
	"github.com/sokol-samples/webpage/internal/samples"
	"github.com/sokol-samples/webpage/internal/substitute"
	"github.com/sokol-samples/webpage/internal/toolchain"
	"github.com/sokol-samples/webpage/internal/tracing"
)

// Recorder stores the outcome of each deploy.
type Recorder interface {
	Save(ctx context.Context, r history.Run) (int64, error)
}

// Options holds the collaborators of an Orchestrator.
type Options struct {
	Paths       paths.Deployment
	BuildConfig string
	SourceURL   string
	Registry    *samples.Registry
	Toolchain   toolchain.Toolchain
	Console     *presentation.Console

	// Optional.
	Loader   *substitute.Loader
	Flags    *flags.Registry
	Tracer   trace.Tracer
	Recorder Recorder
	Now      func() time.Time
}

// Report is what a deploy produced.
type Report struct {
	RunID     string
	Toolchain bool
	Gallery   gallery.Result
	Pages     pages.Result
}

// Files sums the file changes of every step.
func (r Report) Files() fsutil.Tally {
	t := r.Gallery.Files
	t.Merge(r.Pages.Files)
	return t
}

// Orchestrator runs deploys.
type Orchestrator struct {
	opts     Options
	locator  *artifacts.Locator
	composer *gallery.Composer
	pages    *pages.Generator
}

// New creates an Orchestrator, filling unset optional collaborators.
func New(opts Options) *Orchestrator {
	if opts.Loader == nil {
		opts.Loader = substitute.NewLoader()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Disabled().Tracer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Flags.Enabled(flags.FlagQuietCopy) {
		opts.Console.SetQuiet(true)
	}

	locator := artifacts.NewLocator(opts.Paths.WasmDeployDir)
	return &Orchestrator{
		opts:     opts,
		locator:  locator,
		composer: gallery.NewComposer(opts.Paths, locator, opts.Loader, opts.Console),
		pages:    pages.NewGenerator(opts.Paths, opts.SourceURL, locator, opts.Loader, opts.Console, opts.Flags),
	}
}

// RefreshGallery rereads the templates and recomposes the gallery without
// compiling or regenerating pages.
func (o *Orchestrator) RefreshGallery(ctx context.Context) (gallery.Result, error) {
	o.opts.Loader.Invalidate(ctx)
	return o.deployGallery(ctx)
}

// Deploy builds the site. With rebuild the output directory is deleted first.
// A failed configure or compile aborts the deploy; a failed deploy leaves
// whatever it already wrote in place.
func (o *Orchestrator) Deploy(ctx context.Context, rebuild bool) (rep Report, err error) {
	rep.RunID = history.NewRunID()
	started := o.opts.Now()
	dir := o.opts.Paths.WebpageDir

	ctx, span := tracing.Start(ctx, o.opts.Tracer, tracing.SpanDeploy,
		attribute.String(tracing.AttrRunID, rep.RunID),
		attribute.Bool(tracing.AttrRebuild, rebuild),
		attribute.String(tracing.AttrWebpageDir, dir),
		attribute.Int(tracing.AttrSamples, o.opts.Registry.Len()),
	)
	defer func() {
		span.SetAttributes(attribute.Bool(tracing.AttrToolchain, rep.Toolchain))
		tracing.End(span, err)
		o.record(ctx, rep, rebuild, started, err)
	}()

	log.Info(log.CatDeploy, "Deploy started", "run_id", rep.RunID, "rebuild", rebuild, "dir", dir)

	if rebuild && fsutil.IsDir(dir) {
		log.Info(log.CatDeploy, "Removing previous output", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return rep, fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return rep, err
	}
	if err := fsutil.EnsureDir(o.opts.Paths.PlatformDir()); err != nil {
		return rep, err
	}

	rep.Toolchain = o.opts.Toolchain.Available(ctx)
	if rep.Toolchain {
		if err := o.compile(ctx); err != nil {
			return rep, err
		}
	} else {
		log.Info(log.CatDeploy, "Skipping compile and pages, toolchain not available")
	}

	rep.Gallery, err = o.deployGallery(ctx)
	if err != nil {
		return rep, err
	}

	if rep.Toolchain {
		rep.Pages, err = o.generatePages(ctx)
		if err != nil {
			return rep, err
		}
	}

	o.opts.Console.Success("Generated Samples web page under %s.", dir)
	o.opts.Console.Summary(o.summary(rep))
	log.Info(log.CatDeploy, "Deploy finished", "run_id", rep.RunID, "elapsed", o.opts.Now().Sub(started))
	return rep, nil
}

func (o *Orchestrator) compile(ctx context.Context) (err error) {
	ctx, span := tracing.Start(ctx, o.opts.Tracer, tracing.SpanCompile,
		attribute.String(tracing.AttrBuildConfig, o.opts.BuildConfig))
	defer func() { tracing.End(span, err) }()

	if err := o.opts.Toolchain.Configure(ctx, o.opts.BuildConfig); err != nil {
		return fmt.Errorf("configuring %s: %w", o.opts.BuildConfig, err)
	}
	if err := o.opts.Toolchain.Compile(ctx, o.opts.BuildConfig); err != nil {
		return fmt.Errorf("compiling %s: %w", o.opts.BuildConfig, err)
	}
	return nil
}

func (o *Orchestrator) deployGallery(ctx context.Context) (res gallery.Result, err error) {
	ctx, span := tracing.Start(ctx, o.opts.Tracer, tracing.SpanGallery)
	defer func() {
		span.SetAttributes(attribute.Int(tracing.AttrThumbnails, res.Thumbnails))
		tracing.End(span, err)
	}()
	return o.composer.Deploy(ctx, o.opts.Registry)
}

func (o *Orchestrator) generatePages(ctx context.Context) (res pages.Result, err error) {
	ctx, span := tracing.Start(ctx, o.opts.Tracer, tracing.SpanPages)
	defer func() {
		span.SetAttributes(
			attribute.Int(tracing.AttrPages, res.Pages),
			attribute.Int(tracing.AttrArtifacts, res.Artifacts),
		)
		tracing.End(span, err)
	}()
	return o.pages.Generate(ctx, o.opts.Registry)
}

func (o *Orchestrator) summary(rep Report) presentation.SummaryDTO {
	files := rep.Files()
	templates := o.opts.Loader.Stats()
	return presentation.SummaryDTO{
		RunID:       rep.RunID,
		WebpageDir:  o.opts.Paths.WebpageDir,
		Toolchain:   rep.Toolchain,
		Thumbnails:  rep.Gallery.Thumbnails,
		Pages:       rep.Pages.Pages,
		Artifacts:   rep.Pages.Artifacts,
		Screenshots: rep.Gallery.Screenshots,
		Created:     files.Created,
		Updated:     files.Updated,
		Unchanged:   files.Unchanged,
		Changed:     files.Changed(),

		TemplateLoads: templates.Misses,
		TemplateHits:  templates.Hits,
	}
}

// record saves the run. History is best effort and never fails a deploy.
func (o *Orchestrator) record(ctx context.Context, rep Report, rebuild bool, started time.Time, deployErr error) {
	if o.opts.Recorder == nil {
		return
	}
	run := history.Run{
		RunID:      rep.RunID,
		StartedAt:  started,
		FinishedAt: o.opts.Now(),
		Rebuild:    rebuild,
		Toolchain:  rep.Toolchain,
		WebpageDir: o.opts.Paths.WebpageDir,
		Samples:    rep.Gallery.Thumbnails,
		Pages:      rep.Pages.Pages,
		Copied:     rep.Pages.Artifacts + rep.Gallery.Screenshots,
		Status:     history.StatusSucceeded,
	}
	if deployErr != nil {
		run.Status = history.StatusFailed
		run.Error = deployErr.Error()
	}
	// Record even when the deploy was canceled.
	if _, err := o.opts.Recorder.Save(context.WithoutCancel(ctx), run); err != nil {
		log.ErrorErr(log.CatHistory, "Failed to record deploy", err, "run_id", rep.RunID)
	}
}
