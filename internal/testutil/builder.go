// Package testutil builds throwaway fips workspaces for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sokol-samples/webpage/internal/paths"
	"github.com/sokol-samples/webpage/internal/samples"
)

// BuildConfig is the build profile used by test workspaces.
const BuildConfig = "sapp-webgl2-wasm-ninja-release"

// sampleData holds the files to create for one sample.
type sampleData struct {
	name       string
	screenshot bool
	built      map[samples.Variant][]string
}

// Builder accumulates a workspace layout and writes it in Build.
type Builder struct {
	t        *testing.T
	root     string
	assets   map[string]string
	samples  []sampleData
	webpages map[string]string
}

// NewBuilder creates a builder rooted in a fresh temp dir.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{
		t:        t,
		root:     t.TempDir(),
		assets:   map[string]string{},
		webpages: map[string]string{},
	}
}

// WithAsset adds a file to the project's webpage asset dir.
func (b *Builder) WithAsset(name, content string) *Builder {
	b.assets[name] = content
	return b
}

// WithSample adds files for a sample.
func (b *Builder) WithSample(name string, opts ...SampleOption) *Builder {
	s := sampleData{name: name, built: map[samples.Variant][]string{}}
	for _, opt := range opts {
		opt(&s)
	}
	b.samples = append(b.samples, s)
	return b
}

// WithExistingWebpageFile pre-populates the output dir, as a previous deploy would.
func (b *Builder) WithExistingWebpageFile(rel, content string) *Builder {
	b.webpages[rel] = content
	return b
}

// Build writes every file and returns the deployment paths.
func (b *Builder) Build() paths.Deployment {
	b.t.Helper()
	d := paths.Resolve(filepath.Join(b.root, "sokol-samples"), b.root, BuildConfig)

	for name, content := range b.assets {
		b.write(d.Asset(name), content)
	}
	for _, s := range b.samples {
		if s.screenshot {
			b.write(d.Asset(s.name+".jpg"), "jpeg:"+s.name)
		}
		for v, exts := range s.built {
			for _, ext := range exts {
				b.write(filepath.Join(d.WasmDeployDir, v.Program(s.name)+"."+ext), ext+":"+v.Program(s.name))
			}
		}
	}
	for rel, content := range b.webpages {
		b.write(filepath.Join(d.WebpageDir, rel), content)
	}
	require.NoError(b.t, os.MkdirAll(d.AssetDir(), 0o755))
	return d
}

func (b *Builder) write(path, content string) {
	b.t.Helper()
	require.NoError(b.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(b.t, os.WriteFile(path, []byte(content), 0o644))
}
