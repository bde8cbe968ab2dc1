package preview

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sokol-samples/webpage/internal/log"
)

// Runner runs a command in a directory and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a Runner attached to the process's stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes argv in dir. A canceled ctx stops the child and is not an error.
func (r *ExecRunner) Run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	log.Debug(log.CatServe, "Running", "dir", dir, "argv", strings.Join(argv, " "))

	//nolint:gosec // G204: argv comes from the platform table and config
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running %s: %w", argv[0], err)
	}
	return nil
}
