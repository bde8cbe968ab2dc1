package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sokol-samples/webpage/internal/fsutil"
	"github.com/sokol-samples/webpage/internal/log"
)

// compilerBinary is probed on PATH when the SDK directory is missing.
const compilerBinary = "emcc"

// Fips runs the fips build tool from the project directory.
type Fips struct {
	projectDir string
	tool       string
	emsdkDir   string
	output     io.Writer
	lookPath   func(string) (string, error)
}

// Option configures a Fips.
type Option func(*Fips)

// WithOutput streams the build tool's output to w. Default: discarded.
func WithOutput(w io.Writer) Option {
	return func(f *Fips) { f.output = w }
}

// WithLookPath replaces exec.LookPath for the compiler probe.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(f *Fips) { f.lookPath = fn }
}

// NewFips creates a Fips toolchain. tool is resolved relative to projectDir
// when it is a relative path.
func NewFips(projectDir, tool, emsdkDir string, opts ...Option) *Fips {
	f := &Fips{
		projectDir: projectDir,
		tool:       tool,
		emsdkDir:   emsdkDir,
		output:     io.Discard,
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Available reports whether the emscripten SDK is installed in the workspace
// or its compiler is on PATH.
func (f *Fips) Available(_ context.Context) bool {
	if f.emsdkDir != "" && fsutil.IsDir(f.emsdkDir) {
		log.Debug(log.CatToolchain, "Found SDK directory", "dir", f.emsdkDir)
		return true
	}
	if path, err := f.lookPath(compilerBinary); err == nil {
		log.Debug(log.CatToolchain, "Found compiler on PATH", "path", path)
		return true
	}
	log.Info(log.CatToolchain, "Toolchain not available", "emsdk_dir", f.emsdkDir)
	return false
}

// Configure runs `fips gen {profile}`.
func (f *Fips) Configure(ctx context.Context, profile string) error {
	return f.run(ctx, "gen", profile)
}

// Compile runs `fips build {profile}`.
func (f *Fips) Compile(ctx context.Context, profile string) error {
	return f.run(ctx, "build", profile)
}

func (f *Fips) run(ctx context.Context, args ...string) error {
	log.Info(log.CatBuild, "Running build tool", "tool", f.tool, "args", strings.Join(args, " "), "dir", f.projectDir)

	//nolint:gosec // G204: tool comes from config
	cmd := exec.CommandContext(ctx, f.tool, args...)
	cmd.Dir = f.projectDir

	var stderr bytes.Buffer
	cmd.Stdout = f.output
	cmd.Stderr = io.MultiWriter(f.output, &stderr)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		msg := lastLine(stderr.String())
		log.ErrorErr(log.CatBuild, "Build tool failed", err, "args", strings.Join(args, " "), "stderr", msg)
		if msg != "" {
			return fmt.Errorf("%w: %s %s: %s", ErrCommandFailed, f.tool, strings.Join(args, " "), msg)
		}
		return fmt.Errorf("%w: %s %s: %w", ErrCommandFailed, f.tool, strings.Join(args, " "), err)
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
