// Package config provides configuration types and defaults for the webpage verb.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sokol-samples/webpage/internal/samples"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// DefaultBuildConfig is the build profile the samples are compiled with.
const DefaultBuildConfig = "sapp-webgl2-wasm-ninja-release"

// DefaultSourceURL prefixes a sample's source file name to link its source.
const DefaultSourceURL = "https://github.com/floooh/sokol-samples/tree/master/sapp/"

// Config holds all configuration options for the webpage verb.
type Config struct {
	ProjectDir   string          `mapstructure:"project_dir" yaml:"project_dir,omitempty"`
	WorkspaceDir string          `mapstructure:"workspace_dir" yaml:"workspace_dir,omitempty"`
	BuildConfig  string          `mapstructure:"build_config" yaml:"build_config"`
	SourceURL    string          `mapstructure:"source_url" yaml:"source_url"`
	Samples      []samples.Entry `mapstructure:"samples" yaml:"samples,omitempty"`
	Toolchain    ToolchainConfig `mapstructure:"toolchain" yaml:"toolchain"`
	Serve        ServeConfig     `mapstructure:"serve" yaml:"serve"`
	History      HistoryConfig   `mapstructure:"history" yaml:"history"`
	Tracing      TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Flags        map[string]bool `mapstructure:"flags" yaml:"flags,omitempty"`
}

// ToolchainConfig locates the project build tool and the target SDK.
type ToolchainConfig struct {
	// Fips is the build tool invoked from the project directory.
	Fips string `mapstructure:"fips" yaml:"fips"`

	// EmsdkDir overrides the SDK location probed for toolchain availability.
	// Default: {workspace}/fips-sdks/emsdk
	EmsdkDir string `mapstructure:"emsdk_dir" yaml:"emsdk_dir,omitempty"`
}

// ServeConfig holds local preview settings.
type ServeConfig struct {
	URL  string `mapstructure:"url" yaml:"url"`
	Addr string `mapstructure:"addr" yaml:"addr"`

	// ServerCommand replaces the built-in file server with an external
	// process, run from the webpage directory.
	ServerCommand string `mapstructure:"server_command" yaml:"server_command,omitempty"`

	// Watch recomposes the gallery when webpage assets change while serving.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// HistoryConfig controls the deploy history database.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path of the SQLite file.
	// Default: {workspace}/fips-deploy/.webpage/history.db
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	Exporter string `mapstructure:"exporter" yaml:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/webpage/traces/traces.jsonl
	FilePath string `mapstructure:"file_path" yaml:"file_path,omitempty"`

	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		BuildConfig: DefaultBuildConfig,
		SourceURL:   DefaultSourceURL,
		Toolchain: ToolchainConfig{
			Fips: "./fips",
		},
		Serve: ServeConfig{
			URL:  "http://localhost:8000",
			Addr: "localhost:8000",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/webpage/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "webpage", "traces", "traces.jsonl")
}

// Registry returns the configured samples, or the built-in list when none
// are configured.
func (c Config) Registry() (*samples.Registry, error) {
	if len(c.Samples) == 0 {
		return samples.Default(), nil
	}
	r, err := samples.NewRegistry(c.Samples)
	if err != nil {
		return nil, fmt.Errorf("%w: samples: %w", ErrInvalid, err)
	}
	return r, nil
}

// ResolveProjectDir returns the absolute project directory, defaulting to the
// current working directory.
func (c Config) ResolveProjectDir() (string, error) {
	dir := c.ProjectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving project dir: %w", err)
	}
	return abs, nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if c.BuildConfig == "" {
		return fmt.Errorf("%w: build_config is required", ErrInvalid)
	}
	if c.SourceURL == "" {
		return fmt.Errorf("%w: source_url is required", ErrInvalid)
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	if err := ValidateServe(c.Serve); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateServe checks preview configuration for errors.
func ValidateServe(serve ServeConfig) error {
	if serve.URL == "" {
		return fmt.Errorf("%w: serve.url is required", ErrInvalid)
	}
	if serve.Addr == "" && serve.ServerCommand == "" {
		return fmt.Errorf("%w: serve.addr is required when serve.server_command is unset", ErrInvalid)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("%w: tracing.sample_rate must be between 0.0 and 1.0, got %v", ErrInvalid, tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("%w: tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", ErrInvalid, tracing.Exporter)
		}
	}

	if tracing.Enabled {
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("%w: tracing.otlp_endpoint is required when exporter is \"otlp\"", ErrInvalid)
		}
	}

	return nil
}
