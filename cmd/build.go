package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sokol-samples/webpage/internal/deploy"
	"github.com/sokol-samples/webpage/internal/toolchain"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the samples and generate the webpage",
	Long: `Compile the samples for the web build profile (when the emscripten SDK is
installed) and generate the samples gallery and per-sample pages. Files from
previous builds are kept unless overwritten.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd, args, false)
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Delete the generated webpage, then build it",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd, args, true)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(rebuildCmd)
}

func runDeploy(cmd *cobra.Command, args []string, rebuild bool) error {
	logCleanup, err := initLogging("webpage-build")
	if err != nil {
		return err
	}
	defer logCleanup()
	logIgnoredArgs(cmd, args)

	env, cleanup, err := newEnvironment(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer cleanup()

	emsdk := env.cfg.Toolchain.EmsdkDir
	if emsdk == "" {
		emsdk = env.deployment.DefaultEmsdkDir()
	}
	tc := toolchain.NewFips(env.deployment.ProjectDir, env.cfg.Toolchain.Fips, emsdk,
		toolchain.WithOutput(cmd.OutOrStdout()))

	opts := deploy.Options{
		Paths:       env.deployment,
		BuildConfig: env.cfg.BuildConfig,
		SourceURL:   env.cfg.SourceURL,
		Registry:    env.registry,
		Toolchain:   tc,
		Console:     env.console,
		Flags:       env.flags,
		Tracer:      env.tracing.Tracer(),
	}
	if store := env.openHistory(); store != nil {
		defer func() { _ = store.Close() }()
		opts.Recorder = store
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = deploy.New(opts).Deploy(ctx, rebuild)
	return err
}
