package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sokol-samples/webpage/internal/config"
	"github.com/sokol-samples/webpage/internal/log"
	"github.com/sokol-samples/webpage/internal/presentation"
)

const (
	localConfigPath = ".webpage/config.yaml"
	initConfigEnv   = "WEBPAGE_INIT_CONFIG"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var helpSynopses = []string{
	"webpage build",
	"webpage rebuild",
	"webpage serve",
}

var rootCmd = &cobra.Command{
	Use:   "webpage",
	Short: "build sokol samples webpage",
	Long: `Compiles the sokol samples to WebAssembly, generates the samples gallery
under {workspace}/fips-deploy/sokol-webpage and serves it locally.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .webpage/config.yaml, then ~/.config/webpage/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (path from WEBPAGE_LOG, default debug.log)")
	rootCmd.PersistentFlags().StringP("project-dir", "p", "",
		"samples project directory (default: current directory)")
	rootCmd.PersistentFlags().String("workspace-dir", "",
		"fips workspace directory (default: parent of the project directory)")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c != rootCmd {
			defaultHelp(c, args)
			return
		}
		presentation.NewConsole(c.OutOrStdout()).Help(helpSynopses, c.Short)
		_, _ = fmt.Fprintln(c.OutOrStdout())
		_, _ = fmt.Fprint(c.OutOrStdout(), c.UsageString())
	})
}

func initConfig() {
	viper.Reset()
	cfg = config.Config{}

	defaults := config.Defaults()
	viper.SetDefault("build_config", defaults.BuildConfig)
	viper.SetDefault("source_url", defaults.SourceURL)
	viper.SetDefault("toolchain.fips", defaults.Toolchain.Fips)
	viper.SetDefault("serve.url", defaults.Serve.URL)
	viper.SetDefault("serve.addr", defaults.Serve.Addr)
	viper.SetDefault("serve.watch", defaults.Serve.Watch)
	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	_ = viper.BindPFlag("project_dir", rootCmd.PersistentFlags().Lookup("project-dir"))
	_ = viper.BindPFlag("workspace_dir", rootCmd.PersistentFlags().Lookup("workspace-dir"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .webpage/config.yaml (current directory)
		// 2. ~/.config/webpage/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "webpage"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && os.Getenv(initConfigEnv) != "" {
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
		}
		// Otherwise continue with defaults.
	}

	_ = viper.Unmarshal(&cfg)
}

// runRoot handles everything that is not a known verb.
func runRoot(cmd *cobra.Command, args []string) error {
	console := presentation.NewConsole(cmd.OutOrStdout())
	if len(args) == 0 {
		console.Error("Param 'build' or 'serve' expected")
		return nil
	}
	console.Error("Invalid param '%s', expected 'build' or 'serve'", args[0])
	return nil
}

// initLogging enables the debug log when --debug or WEBPAGE_DEBUG is set.
func initLogging(prefix string) (func(), error) {
	if os.Getenv("WEBPAGE_DEBUG") == "" && !debugFlag {
		return func() {}, nil
	}
	logPath := os.Getenv("WEBPAGE_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "webpage starting", "version", version, "config", viper.ConfigFileUsed())
	return cleanup, nil
}

// logIgnoredArgs notes arguments after the verb. Only the verb is dispatched on.
func logIgnoredArgs(cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		log.Debug(log.CatConfig, "Ignoring extra arguments", "verb", cmd.Name(), "args", args)
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
