package preview

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sokol-samples/webpage/internal/presentation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingRunner struct {
	mu    sync.Mutex
	calls []runCall
	err   error
	// onRun, when set, runs in place of returning immediately.
	onRun func(ctx context.Context)
}

type runCall struct {
	dir  string
	argv []string
}

func (r *recordingRunner) Run(ctx context.Context, dir string, argv []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, runCall{dir: dir, argv: argv})
	r.mu.Unlock()
	if r.onRun != nil {
		r.onRun(ctx)
	}
	return r.err
}

func (r *recordingRunner) Calls() []runCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]runCall(nil), r.calls...)
}

func fixed(p Platform) func() Platform {
	return func() Platform { return p }
}

func TestPlatformFor(t *testing.T) {
	tests := []struct {
		goos string
		want Platform
	}{
		{"darwin", PlatformOSX},
		{"windows", PlatformWindows},
		{"linux", PlatformLinux},
		{"freebsd", PlatformUnknown},
		{"plan9", PlatformUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			require.Equal(t, tt.want, platformFor(tt.goos))
		})
	}
}

func TestStrategyTable(t *testing.T) {
	const url = "http://localhost:8000"
	tests := []struct {
		platform  Platform
		open      []string
		composite []string
	}{
		{PlatformOSX, []string{"sh", "-c", "open " + url}, []string{"sh", "-c", "open " + url + " ; python httpserver.py"}},
		{PlatformWindows, []string{"cmd", "/c", "start " + url}, []string{"cmd", "/c", "start " + url + " && python httpserver.py"}},
		{PlatformLinux, []string{"sh", "-c", "xdg-open " + url}, []string{"sh", "-c", "xdg-open " + url + "; python httpserver.py"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			s, ok := StrategyFor(tt.platform)
			require.True(t, ok)
			require.Equal(t, tt.open, s.OpenCommand(url))
			require.Equal(t, tt.composite, s.CompositeCommand(url, " python httpserver.py "))
		})
	}

	_, ok := StrategyFor(PlatformUnknown)
	require.False(t, ok)
}

func TestServe_UnknownPlatformDoesNothing(t *testing.T) {
	root := t.TempDir()
	runner := &recordingRunner{}
	l := NewLauncher(Options{
		WebpageDir:    filepath.Join(root, "does-not-exist"),
		URL:           "http://localhost:8000",
		ServerCommand: "python httpserver.py",
		Platform:      fixed(PlatformUnknown),
		Runner:        runner,
	})

	require.NoError(t, l.Serve(context.Background()))
	require.Empty(t, runner.Calls())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestServe_MissingWebpageDir(t *testing.T) {
	runner := &recordingRunner{}
	l := NewLauncher(Options{
		WebpageDir: filepath.Join(t.TempDir(), "missing"),
		URL:        "http://localhost:8000",
		Addr:       "127.0.0.1:0",
		Platform:   fixed(PlatformLinux),
		Runner:     runner,
	})

	err := l.Serve(context.Background())
	require.ErrorContains(t, err, "run 'webpage build' first")
	require.Empty(t, runner.Calls())
}

func TestServe_ExternalServerCommand(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{}
	l := NewLauncher(Options{
		WebpageDir:    dir,
		URL:           "http://localhost:8000",
		ServerCommand: "python httpserver.py",
		Platform:      fixed(PlatformOSX),
		Runner:        runner,
	})

	require.NoError(t, l.Serve(context.Background()))
	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, dir, calls[0].dir)
	require.Equal(t, []string{"sh", "-c", "open http://localhost:8000 ; python httpserver.py"}, calls[0].argv)
}

func TestServe_ExternalServerFailure(t *testing.T) {
	boom := errors.New("exit status 1")
	l := NewLauncher(Options{
		WebpageDir:    t.TempDir(),
		URL:           "http://localhost:8000",
		ServerCommand: "false",
		Platform:      fixed(PlatformLinux),
		Runner:        &recordingRunner{err: boom},
	})
	require.ErrorIs(t, l.Serve(context.Background()), boom)
}

func TestServe_BuiltinStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("gallery"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	runner := &recordingRunner{
		// Opening the browser is the last step before blocking; interrupt then.
		onRun: func(context.Context) { cancel() },
	}
	var out bytes.Buffer
	l := NewLauncher(Options{
		WebpageDir: dir,
		URL:        "http://localhost:8000",
		Addr:       "127.0.0.1:0",
		Platform:   fixed(PlatformLinux),
		Runner:     runner,
		Console:    presentation.NewConsole(&out),
	})

	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err, "interrupt is a clean stop")
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []string{"sh", "-c", "xdg-open http://localhost:8000"}, calls[0].argv)
	require.Contains(t, out.String(), "serving "+dir)
}

func TestServe_BrowserFailureKeepsServing(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	runner := &recordingRunner{err: errors.New("xdg-open: not found")}
	l := NewLauncher(Options{
		WebpageDir: dir,
		URL:        "http://localhost:8000",
		Addr:       "127.0.0.1:0",
		Platform:   fixed(PlatformLinux),
		Runner:     runner,
	})

	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("Serve returned early: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
	cancel()
	require.NoError(t, <-done)
}

func TestServe_WatchRefreshes(t *testing.T) {
	dir := t.TempDir()
	assets := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var refreshes atomic.Int32
	runner := &recordingRunner{}
	l := NewLauncher(Options{
		WebpageDir: dir,
		URL:        "http://localhost:8000",
		Addr:       "127.0.0.1:0",
		WatchDir:   assets,
		Refresh: func(context.Context) error {
			refreshes.Add(1)
			return nil
		},
		Platform: fixed(PlatformLinux),
		Runner:   runner,
	})

	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	// The browser opens after the watcher is registered.
	require.Eventually(t, func() bool { return len(runner.Calls()) > 0 }, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(assets, "index.html"), []byte("changed"), 0o644))

	require.Eventually(t, func() bool { return refreshes.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestExecRunner(t *testing.T) {
	if _, ok := StrategyFor(DetectHostPlatform()); !ok || DetectHostPlatform() == PlatformWindows {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	var out bytes.Buffer
	r := &ExecRunner{Stdout: &out, Stderr: &out}

	require.NoError(t, r.Run(context.Background(), dir, []string{"sh", "-c", "pwd"}))
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	require.Contains(t, out.String(), filepath.Base(resolved))

	require.Error(t, r.Run(context.Background(), dir, []string{"sh", "-c", "exit 3"}))
	require.Error(t, r.Run(context.Background(), dir, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx, dir, []string{"sh", "-c", "sleep 5"}), "canceled run is a clean stop")
}
