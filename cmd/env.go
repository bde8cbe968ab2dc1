package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sokol-samples/webpage/internal/config"
	"github.com/sokol-samples/webpage/internal/flags"
	"github.com/sokol-samples/webpage/internal/history"
	"github.com/sokol-samples/webpage/internal/log"
	"github.com/sokol-samples/webpage/internal/paths"
	"github.com/sokol-samples/webpage/internal/presentation"
	"github.com/sokol-samples/webpage/internal/samples"
	"github.com/sokol-samples/webpage/internal/tracing"
)

// environment is what every verb needs, derived once from the loaded config.
type environment struct {
	cfg        config.Config
	deployment paths.Deployment
	registry   *samples.Registry
	flags      *flags.Registry
	console    *presentation.Console
	tracing    *tracing.Provider
}

// newEnvironment validates cfg and resolves the deployment directories.
// The returned cleanup flushes traces.
func newEnvironment(c config.Config, out io.Writer) (*environment, func(), error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	registry, err := c.Registry()
	if err != nil {
		return nil, nil, err
	}

	projectDir, err := c.ResolveProjectDir()
	if err != nil {
		return nil, nil, err
	}
	ws, err := paths.ResolveWorkspaceRoot(projectDir, c.WorkspaceDir)
	if err != nil {
		return nil, nil, err
	}
	d := paths.Resolve(projectDir, ws, c.BuildConfig)
	log.Info(log.CatConfig, "resolved paths", "project", d.ProjectDir, "workspace", d.WorkspaceRoot, "webpage", d.WebpageDir)

	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}
	if provider.Enabled() {
		log.Info(log.CatConfig, "Tracing enabled", "exporter", c.Tracing.Exporter, "sample_rate", c.Tracing.SampleRate)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatConfig, "Failed to flush traces", err)
		}
	}

	return &environment{
		cfg:        c,
		deployment: d,
		registry:   registry,
		flags:      flags.New(c.Flags),
		console:    presentation.NewConsole(out),
		tracing:    provider,
	}, cleanup, nil
}

func (e *environment) historyPath() string {
	if e.cfg.History.Path != "" {
		return e.cfg.History.Path
	}
	return e.deployment.DefaultHistoryPath()
}

// openHistory opens the deploy history. It returns nil when history is
// disabled or cannot be opened; history never blocks a verb.
func (e *environment) openHistory() *history.Store {
	if !e.cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(e.historyPath())
	if err != nil {
		log.ErrorErr(log.CatHistory, "History unavailable", err, "path", e.historyPath())
		return nil
	}
	return store
}
