package presentation

// SummaryDTO is the console view of a finished deploy.
type SummaryDTO struct {
	RunID       string
	WebpageDir  string
	Toolchain   bool
	Thumbnails  int
	Pages       int
	Artifacts   int
	Screenshots int
	Created     int
	Updated     int
	Unchanged   int
	Changed     int

	// Template cache counters: reads from disk and reuses.
	TemplateLoads int64
	TemplateHits  int64
}
