// Package samples defines the ordered set of sample programs shown in the
// gallery, and the build variants each one may be compiled as.
package samples

import "fmt"

// Entry is one sample program: the name shown in the gallery and the source
// file it is built from. Entries are identified by Name.
type Entry struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Source string `mapstructure:"source" yaml:"source"`
}

// Variant is a build flavor of a sample. Its value is the artifact postfix.
type Variant string

const (
	VariantPlain Variant = "sapp"
	VariantUI    Variant = "sapp-ui"
)

// Variants lists every variant in page-generation order.
var Variants = []Variant{VariantPlain, VariantUI}

// Extensions are the artifact file extensions produced per variant:
// the WebAssembly module and its JavaScript glue script.
var Extensions = []string{"wasm", "js"}

// Program returns the artifact basename for name built as v, e.g. "cube-sapp-ui".
func (v Variant) Program(name string) string {
	return name + "-" + string(v)
}

// PageName returns the generated HTML page name for name built as v.
func (v Variant) PageName(name string) string {
	return v.Program(name) + ".html"
}

// Registry is an immutable, ordered list of sample entries.
// Order is gallery display order.
type Registry struct {
	entries []Entry
}

// NewRegistry copies entries into a registry, rejecting empty fields and
// duplicate names.
func NewRegistry(entries []Entry) (*Registry, error) {
	seen := make(map[string]bool, len(entries))
	copied := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("sample %d: name is required", i)
		}
		if e.Source == "" {
			return nil, fmt.Errorf("sample %d (%s): source is required", i, e.Name)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("sample %d: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
		copied = append(copied, e)
	}
	return &Registry{entries: copied}, nil
}

// MustRegistry is NewRegistry for static tables; it panics on invalid input.
func MustRegistry(entries []Entry) *Registry {
	r, err := NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// Entries returns a copy of the entries in display order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of samples.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// DefaultEntries returns the built-in sample list.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "clear", Source: "clear-sapp.c"},
		{Name: "triangle", Source: "triangle-sapp.c"},
		{Name: "quad", Source: "quad-sapp.c"},
		{Name: "bufferoffsets", Source: "bufferoffsets-sapp.c"},
		{Name: "cube", Source: "cube-sapp.c"},
		{Name: "noninterleaved", Source: "noninterleaved-sapp.c"},
		{Name: "texcube", Source: "texcube-sapp.c"},
		{Name: "offscreen", Source: "offscreen-sapp.c"},
		{Name: "instancing", Source: "instancing-sapp.c"},
		{Name: "mrt", Source: "mrt-sapp.c"},
		{Name: "arraytex", Source: "arraytex-sapp.c"},
		{Name: "dyntex", Source: "dyntex-sapp.c"},
		{Name: "mipmap", Source: "mipmap-sapp.c"},
		{Name: "blend", Source: "blend-sapp.c"},
		{Name: "imgui", Source: "imgui-sapp.cc"},
		{Name: "imgui-highdpi", Source: "imgui-highdpi-sapp.cc"},
		{Name: "sgl-microui", Source: "sgl-microui-sapp.c"},
		{Name: "saudio", Source: "saudio-sapp.c"},
		{Name: "modplay", Source: "modplay-sapp.c"},
		{Name: "noentry", Source: "noentry-sapp.c"},
		{Name: "sgl", Source: "sgl-sapp.c"},
		{Name: "sgl-lines", Source: "sgl-lines-sapp.c"},
	}
}

// Default returns the built-in registry.
func Default() *Registry {
	return MustRegistry(DefaultEntries())
}
