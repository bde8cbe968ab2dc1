package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sokol-samples/webpage/internal/deploy"
	"github.com/sokol-samples/webpage/internal/fsutil"
	"github.com/sokol-samples/webpage/internal/log"
	"github.com/sokol-samples/webpage/internal/preview"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the generated webpage in a browser and serve it locally",
	Long: `Open http://localhost:8000 in the default browser and serve the generated
webpage until interrupted with Ctrl+C.

With serve.watch enabled, changes to the project's webpage/ assets regenerate
the gallery while serving.`,
	Args: cobra.ArbitraryArgs,
	RunE: runServe,
}

// Replaced in tests.
var (
	detectPlatform = preview.DetectHostPlatform
	serveRunner    preview.Runner
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("watch", false, "regenerate the gallery when webpage assets change")
}

func runServe(cmd *cobra.Command, args []string) error {
	logCleanup, err := initLogging("webpage-serve")
	if err != nil {
		return err
	}
	defer logCleanup()
	logIgnoredArgs(cmd, args)

	// Without a strategy for this host, serve does nothing at all.
	platform := detectPlatform()
	if _, ok := preview.StrategyFor(platform); !ok {
		log.Warn(log.CatServe, "No preview strategy for host platform, nothing to do")
		return nil
	}

	env, cleanup, err := newEnvironment(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logRecentDeploys(ctx, env)

	opts := preview.Options{
		WebpageDir:    env.deployment.WebpageDir,
		URL:           env.cfg.Serve.URL,
		Addr:          env.cfg.Serve.Addr,
		ServerCommand: env.cfg.Serve.ServerCommand,
		Console:       env.console,
		Platform:      func() preview.Platform { return platform },
		Runner:        serveRunner,
		Tracer:        env.tracing.Tracer(),
	}
	watch, _ := cmd.Flags().GetBool("watch")
	if watch || env.cfg.Serve.Watch {
		opts.WatchDir = env.deployment.AssetDir()
		opts.Refresh = galleryRefresher(env)
	}

	return preview.NewLauncher(opts).Serve(ctx)
}

// galleryRefresher recomposes index.html from fresh templates.
func galleryRefresher(env *environment) func(context.Context) error {
	orchestrator := deploy.New(deploy.Options{
		Paths:       env.deployment,
		BuildConfig: env.cfg.BuildConfig,
		SourceURL:   env.cfg.SourceURL,
		Registry:    env.registry,
		Console:     env.console,
		Flags:       env.flags,
		Tracer:      env.tracing.Tracer(),
	})
	return func(ctx context.Context) error {
		res, err := orchestrator.RefreshGallery(ctx)
		if err != nil {
			env.console.Error("refreshing gallery: %v", err)
			return err
		}
		env.console.Success("Gallery refreshed (%d thumbnails).", res.Thumbnails)
		return nil
	}
}

const recentDeploys = 5

// logRecentDeploys shows the latest deploy on the console and logs the
// ones before it.
func logRecentDeploys(ctx context.Context, env *environment) {
	// Serving never creates the database.
	if !env.cfg.History.Enabled || !fsutil.Exists(env.historyPath()) {
		return
	}
	store := env.openHistory()
	if store == nil {
		return
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(ctx, recentDeploys)
	if err != nil {
		log.ErrorErr(log.CatHistory, "Failed to read deploy history", err)
		return
	}
	if len(runs) == 0 {
		log.Info(log.CatHistory, "No deploy recorded yet")
		return
	}
	for _, run := range runs {
		log.Info(log.CatHistory, "Deploy",
			"run_id", run.RunID,
			"status", run.Status,
			"started", run.StartedAt,
			"duration", run.Duration(),
			"pages", run.Pages)
	}
	last := runs[0]
	env.console.Progress("last deploy %s: %s", last.StartedAt.Format("2006-01-02 15:04:05"), last.Status)
}
