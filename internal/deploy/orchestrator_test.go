package deploy

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sokol-samples/webpage/internal/flags"
	"github.com/sokol-samples/webpage/internal/history"
	"github.com/sokol-samples/webpage/internal/paths"
	"github.com/sokol-samples/webpage/internal/presentation"
	"github.com/sokol-samples/webpage/internal/samples"
	"github.com/sokol-samples/webpage/internal/testutil"
	"github.com/sokol-samples/webpage/internal/toolchain"
	"github.com/sokol-samples/webpage/internal/tracing"
)

type memoryRecorder struct {
	mu   sync.Mutex
	runs []history.Run
	err  error
}

func (m *memoryRecorder) Save(_ context.Context, r history.Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.runs = append(m.runs, r)
	return int64(len(m.runs)), nil
}

var testRegistry = samples.MustRegistry([]samples.Entry{
	{Name: "clear", Source: "clear-sapp.c"},
	{Name: "imgui", Source: "imgui-sapp.cc"},
})

func workspace(t *testing.T) paths.Deployment {
	t.Helper()
	return testutil.NewBuilder(t).
		WithStandardAssets().
		WithSample("clear", testutil.Screenshot(), testutil.Built(samples.VariantPlain)).
		WithSample("imgui", testutil.Built(samples.VariantPlain), testutil.Built(samples.VariantUI)).
		WithExistingWebpageFile("stale.html", "left over").
		Build()
}

func newOrchestrator(d paths.Deployment, tc toolchain.Toolchain, out *bytes.Buffer, rec Recorder) *Orchestrator {
	return New(Options{
		Paths:       d,
		BuildConfig: testutil.BuildConfig,
		SourceURL:   "https://example.com/sapp/",
		Registry:    testRegistry,
		Toolchain:   tc,
		Console:     presentation.NewConsole(out),
		Recorder:    rec,
	})
}

func TestDeploy_ToolchainAvailable(t *testing.T) {
	d := workspace(t)
	tc := toolchain.NewFake(true)
	var out bytes.Buffer
	rec := &memoryRecorder{}

	rep, err := newOrchestrator(d, tc, &out, rec).Deploy(context.Background(), false)
	require.NoError(t, err)

	require.Equal(t, []string{"gen " + testutil.BuildConfig, "build " + testutil.BuildConfig}, tc.Calls())
	require.True(t, rep.Toolchain)
	require.Equal(t, 2, rep.Gallery.Thumbnails)
	require.Equal(t, 1, rep.Gallery.UILinks)
	require.Equal(t, 4, rep.Pages.Pages)
	require.Equal(t, 6, rep.Pages.Artifacts)

	require.FileExists(t, filepath.Join(d.WebpageDir, "index.html"))
	require.FileExists(t, filepath.Join(d.PlatformDir(), "imgui-sapp-ui.html"))
	require.FileExists(t, filepath.Join(d.PlatformDir(), "imgui-sapp-ui.wasm"))
	require.Contains(t, out.String(), "Generated Samples web page under "+d.WebpageDir+".")
	require.Contains(t, out.String(), "pages:       4")

	require.Len(t, rec.runs, 1)
	require.Equal(t, rep.RunID, rec.runs[0].RunID)
	require.Equal(t, history.StatusSucceeded, rec.runs[0].Status)
	require.Equal(t, 7, rec.runs[0].Copied, "six artifacts plus one screenshot")

	// index.html and wasm.html are read once; wasm.html is reused for the other three pages.
	require.Contains(t, out.String(), "templates:   2 loaded, 3 reused")
}

func TestDeploy_ToolchainUnavailable(t *testing.T) {
	d := workspace(t)
	tc := toolchain.NewFake(false)
	var out bytes.Buffer

	rep, err := newOrchestrator(d, tc, &out, nil).Deploy(context.Background(), false)
	require.NoError(t, err)

	require.Empty(t, tc.Calls(), "configure and compile must not run")
	require.False(t, rep.Toolchain)
	require.Zero(t, rep.Pages.Pages)
	require.FileExists(t, filepath.Join(d.WebpageDir, "index.html"))
	entries, err := os.ReadDir(d.PlatformDir())
	require.NoError(t, err, "wasm/ is created even without a toolchain")
	require.Empty(t, entries)
	require.Contains(t, out.String(), "Generated Samples web page under")
	require.Contains(t, out.String(), "not found, gallery only")
}

func TestDeploy_RebuildDeletesPriorContents(t *testing.T) {
	d := workspace(t)
	_, err := newOrchestrator(d, toolchain.NewFake(false), &bytes.Buffer{}, nil).Deploy(context.Background(), true)
	require.NoError(t, err)

	require.NoFileExists(t, filepath.Join(d.WebpageDir, "stale.html"))
	require.FileExists(t, filepath.Join(d.WebpageDir, "index.html"))
}

func TestDeploy_BuildPreservesPriorContents(t *testing.T) {
	d := workspace(t)
	_, err := newOrchestrator(d, toolchain.NewFake(false), &bytes.Buffer{}, nil).Deploy(context.Background(), false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(d.WebpageDir, "stale.html"))
	require.NoError(t, err)
	require.Equal(t, "left over", string(data))
}

func TestDeploy_RebuildWithoutOutputDir(t *testing.T) {
	d := testutil.NewBuilder(t).WithStandardAssets().Build()
	_, err := newOrchestrator(d, toolchain.NewFake(false), &bytes.Buffer{}, nil).Deploy(context.Background(), true)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(d.WebpageDir, "index.html"))
}

func TestDeploy_CompileFailureAborts(t *testing.T) {
	d := workspace(t)
	boom := errors.New("exit status 1")
	tc := toolchain.NewFake(true).FailCompile(boom)
	var out bytes.Buffer
	rec := &memoryRecorder{}

	_, err := newOrchestrator(d, tc, &out, rec).Deploy(context.Background(), false)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "compiling "+testutil.BuildConfig)

	require.NoFileExists(t, filepath.Join(d.WebpageDir, "index.html"))
	require.NotContains(t, out.String(), "Generated Samples web page")
	require.Len(t, rec.runs, 1)
	require.Equal(t, history.StatusFailed, rec.runs[0].Status)
	require.Contains(t, rec.runs[0].Error, "exit status 1")
}

func TestDeploy_ConfigureFailureSkipsCompile(t *testing.T) {
	d := workspace(t)
	tc := toolchain.NewFake(true).FailConfigure(toolchain.ErrCommandFailed)

	_, err := newOrchestrator(d, tc, &bytes.Buffer{}, nil).Deploy(context.Background(), false)
	require.ErrorIs(t, err, toolchain.ErrCommandFailed)
	require.Equal(t, []string{"gen " + testutil.BuildConfig}, tc.Calls())
}

func TestDeploy_MissingTemplateLeavesPartialOutput(t *testing.T) {
	d := testutil.NewBuilder(t).
		WithAsset("dummy.jpg", "x").
		WithAsset("favicon.png", "y").
		Build()

	_, err := newOrchestrator(d, toolchain.NewFake(false), &bytes.Buffer{}, nil).Deploy(context.Background(), false)
	require.Error(t, err)
	require.DirExists(t, d.WebpageDir)
}

func TestDeploy_HistoryFailureIsNotFatal(t *testing.T) {
	d := workspace(t)
	rec := &memoryRecorder{err: errors.New("disk full")}

	_, err := newOrchestrator(d, toolchain.NewFake(false), &bytes.Buffer{}, rec).Deploy(context.Background(), false)
	require.NoError(t, err)
}

func TestDeploy_QuietCopyFlag(t *testing.T) {
	d := workspace(t)
	var out bytes.Buffer
	o := New(Options{
		Paths:       d,
		BuildConfig: testutil.BuildConfig,
		Registry:    testRegistry,
		Toolchain:   toolchain.NewFake(false),
		Console:     presentation.NewConsole(&out),
		Flags:       flags.New(map[string]bool{flags.FlagQuietCopy: true}),
	})

	_, err := o.Deploy(context.Background(), false)
	require.NoError(t, err)
	require.NotContains(t, out.String(), "> ")
	require.Contains(t, out.String(), "Generated Samples web page")
}

func TestRefreshGallery_RereadsTemplate(t *testing.T) {
	d := workspace(t)
	var out bytes.Buffer
	o := New(Options{
		Paths:       d,
		BuildConfig: testutil.BuildConfig,
		Registry:    testRegistry,
		Toolchain:   toolchain.NewFake(true),
		Console:     presentation.NewConsole(&out),
		Flags:       flags.New(map[string]bool{flags.FlagQuietCopy: true}),
	})
	_, err := o.Deploy(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(d.Asset("index.html"), []byte("<main>$samples</main>"), 0o644))
	res, err := o.RefreshGallery(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Thumbnails)

	index, err := os.ReadFile(filepath.Join(d.WebpageDir, "index.html"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(index), "<main><div class=\"thumb\">"))
	require.NotContains(t, out.String(), "> ")
}

func TestDeploy_Spans(t *testing.T) {
	d := workspace(t)
	exp := tracetest.NewInMemoryExporter()
	o := New(Options{
		Paths:       d,
		BuildConfig: testutil.BuildConfig,
		Registry:    testRegistry,
		Toolchain:   toolchain.NewFake(true),
		Console:     presentation.NewConsole(&bytes.Buffer{}),
		Tracer:      tracing.NewProviderWithExporter(exp).Tracer(),
	})

	rep, err := o.Deploy(context.Background(), false)
	require.NoError(t, err)

	spans := exp.GetSpans()
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	// Children end before their parent.
	require.Equal(t, []string{tracing.SpanCompile, tracing.SpanGallery, tracing.SpanPages, tracing.SpanDeploy}, names)

	root := spans[len(spans)-1]
	var runID string
	for _, kv := range root.Attributes {
		if string(kv.Key) == tracing.AttrRunID {
			runID = kv.Value.AsString()
		}
	}
	require.Equal(t, rep.RunID, runID)
	for _, s := range spans[:len(spans)-1] {
		require.Equal(t, root.SpanContext.SpanID(), s.Parent.SpanID())
	}
}
