// Package preview opens the generated site in a browser and serves it.
package preview

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/sokol-samples/webpage/internal/fsutil"
	"github.com/sokol-samples/webpage/internal/log"
	"github.com/sokol-samples/webpage/internal/presentation"
	"github.com/sokol-samples/webpage/internal/server"
	"github.com/sokol-samples/webpage/internal/tracing"
	"github.com/sokol-samples/webpage/internal/watcher"
)

// Options configures a Launcher.
type Options struct {
	WebpageDir string
	URL        string
	// Addr is where the built-in server listens.
	Addr string
	// ServerCommand, when set, replaces the built-in server. It runs in
	// WebpageDir chained after the browser-open command.
	ServerCommand string

	// WatchDir, when set with Refresh, triggers Refresh on changes while serving.
	WatchDir string
	Refresh  func(context.Context) error

	Console  *presentation.Console
	Platform func() Platform
	Runner   Runner
	Tracer   trace.Tracer
}

// Launcher serves the site for local preview.
type Launcher struct {
	opts Options
}

// NewLauncher creates a Launcher, filling unset collaborators with the real ones.
func NewLauncher(opts Options) *Launcher {
	if opts.Platform == nil {
		opts.Platform = DetectHostPlatform
	}
	if opts.Runner == nil {
		opts.Runner = NewExecRunner()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Disabled().Tracer()
	}
	return &Launcher{opts: opts}
}

// Serve opens the browser and serves until the server exits or ctx is
// canceled. Cancellation (operator interrupt) is a clean stop and returns nil.
// On a platform without a strategy it does nothing.
func (l *Launcher) Serve(ctx context.Context) (err error) {
	platform := l.opts.Platform()
	strategy, ok := StrategyFor(platform)
	if !ok {
		log.Warn(log.CatServe, "No preview strategy for host platform, nothing to do")
		return nil
	}

	ctx, span := tracing.Start(ctx, l.opts.Tracer, tracing.SpanServe,
		attribute.String(tracing.AttrPlatform, string(platform)),
		attribute.String(tracing.AttrWebpageDir, l.opts.WebpageDir))
	defer func() { tracing.End(span, err) }()

	if !fsutil.IsDir(l.opts.WebpageDir) {
		return fmt.Errorf("webpage directory %s does not exist, run 'webpage build' first", l.opts.WebpageDir)
	}

	if l.opts.ServerCommand != "" {
		log.Info(log.CatServe, "Starting external server", "platform", platform, "command", l.opts.ServerCommand)
		return l.opts.Runner.Run(ctx, l.opts.WebpageDir, strategy.CompositeCommand(l.opts.URL, l.opts.ServerCommand))
	}
	return l.serveBuiltin(ctx, strategy)
}

func (l *Launcher) serveBuiltin(ctx context.Context, strategy Strategy) error {
	srv := server.New(l.opts.WebpageDir, l.opts.Addr)
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	if l.opts.WatchDir != "" && l.opts.Refresh != nil {
		if w, err := startWatcher(l.opts.WatchDir); err != nil {
			log.ErrorErr(log.CatWatcher, "Live refresh disabled", err)
		} else {
			g.Go(func() error {
				return w.Run(gctx, l.opts.Refresh)
			})
		}
	}

	if l.opts.Console != nil {
		l.opts.Console.Progress("serving %s at %s (Ctrl+C to stop)", l.opts.WebpageDir, l.opts.URL)
	}
	if err := l.opts.Runner.Run(gctx, l.opts.WebpageDir, strategy.OpenCommand(l.opts.URL)); err != nil {
		log.ErrorErr(log.CatServe, "Failed to open browser", err, "url", l.opts.URL)
	}

	return g.Wait()
}

// startWatcher registers dir before returning, so changes made once the
// browser opens are seen.
func startWatcher(dir string) (*watcher.Watcher, error) {
	w, err := watcher.New(watcher.DefaultConfig(dir))
	if err != nil {
		return nil, err
	}
	if _, err := w.Start(); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}
