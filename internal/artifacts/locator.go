// Package artifacts answers which compiled web artifacts a build deployed.
package artifacts

import (
	"path/filepath"

	"github.com/sokol-samples/webpage/internal/fsutil"
	"github.com/sokol-samples/webpage/internal/samples"
)

// ScriptExt is the glue script extension whose presence marks a variant as built.
const ScriptExt = "js"

// Locator probes a wasm deploy directory. It has no side effects and caches
// nothing: every call reflects the filesystem at call time.
type Locator struct {
	deployDir string
}

// NewLocator creates a Locator for deployDir.
func NewLocator(deployDir string) *Locator {
	return &Locator{deployDir: deployDir}
}

// Dir returns the probed deploy directory.
func (l *Locator) Dir() string {
	return l.deployDir
}

// Path returns where the artifact {name}-{variant}.{ext} would be.
func (l *Locator) Path(name string, v samples.Variant, ext string) string {
	return filepath.Join(l.deployDir, v.Program(name)+"."+ext)
}

// File reports whether the artifact {name}-{variant}.{ext} exists as a file.
func (l *Locator) File(name string, v samples.Variant, ext string) bool {
	return fsutil.IsFile(l.Path(name, v, ext))
}

// Exists reports whether name was built as variant v, judged by its glue script.
func (l *Locator) Exists(name string, v samples.Variant) bool {
	return fsutil.Exists(l.Path(name, v, ScriptExt))
}

// Present returns the extensions of name/v that exist, in samples.Extensions order.
func (l *Locator) Present(name string, v samples.Variant) []string {
	var exts []string
	for _, ext := range samples.Extensions {
		if l.File(name, v, ext) {
			exts = append(exts, ext)
		}
	}
	return exts
}
