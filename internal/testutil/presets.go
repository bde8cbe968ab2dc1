package testutil

// IndexTemplate is a minimal gallery template.
const IndexTemplate = "<html><body>\n$samples</body><!-- $unknown --></html>\n"

// PageTemplate is a minimal per-sample page template.
const PageTemplate = "<title>$name</title><script src=\"$prog.js\"></script><a href=\"$source\">src</a> ${missing}\n"

// WithStandardAssets adds the templates and static images every deploy needs.
func (b *Builder) WithStandardAssets() *Builder {
	return b.
		WithAsset("index.html", IndexTemplate).
		WithAsset("wasm.html", PageTemplate).
		WithAsset("dummy.jpg", "jpeg:dummy").
		WithAsset("favicon.png", "png:favicon")
}
