// Package flags holds opt-in behavior switches read from the `flags` config map.
// Unknown or unset flags are off.
package flags

import (
	"maps"
	"slices"

	"github.com/sokol-samples/webpage/internal/log"
)

const (
	// FlagGatePages renders a sample's variant page only when that variant's
	// glue script was deployed. Off by default: every page is rendered.
	FlagGatePages = "gate-pages"

	// FlagQuietCopy suppresses the per-step "> ..." progress lines on the console.
	FlagQuietCopy = "quiet-copy"
)

var known = []string{FlagGatePages, FlagQuietCopy}

// Registry holds flag state. It is read-only after New.
type Registry struct {
	flags map[string]bool
}

// New copies flags into a Registry. Unknown names are kept but logged.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	for name := range r.flags {
		if !slices.Contains(known, name) {
			log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
		}
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags), "flags", r.All())
	return r
}

// Enabled reports whether name is on. Nil-safe.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}
