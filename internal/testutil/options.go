package testutil

import "github.com/sokol-samples/webpage/internal/samples"

// SampleOption configures a sample added with WithSample.
type SampleOption func(*sampleData)

// Screenshot gives the sample a {name}.jpg asset.
func Screenshot() SampleOption {
	return func(s *sampleData) { s.screenshot = true }
}

// Built deploys the sample's variant with the given extensions
// (default: every extension).
func Built(v samples.Variant, exts ...string) SampleOption {
	if len(exts) == 0 {
		exts = samples.Extensions
	}
	return func(s *sampleData) { s.built[v] = exts }
}
