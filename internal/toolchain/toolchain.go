// Package toolchain drives the project build tool that compiles the samples.
package toolchain

import (
	"context"
	"errors"
)

// ErrCommandFailed wraps every failed build tool invocation.
var ErrCommandFailed = errors.New("build command failed")

// Toolchain configures and compiles the samples for a build profile.
// This abstraction allows for easy testing with fake implementations.
type Toolchain interface {
	// Available reports whether the web target SDK is installed. When it is
	// not, a deploy skips compilation and page generation.
	Available(ctx context.Context) bool
	// Configure generates build files for profile.
	Configure(ctx context.Context, profile string) error
	// Compile builds every target of profile and deploys the artifacts.
	Compile(ctx context.Context, profile string) error
}
