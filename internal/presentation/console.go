// Package presentation formats operator-facing console output.
package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Console writes progress, result and usage lines.
type Console struct {
	w     io.Writer
	quiet bool
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// SetQuiet suppresses Progress lines. Results and errors are still written.
func (c *Console) SetQuiet(quiet bool) {
	c.quiet = quiet
}

// Progress writes a "> ..." step line.
func (c *Console) Progress(format string, args ...any) {
	if c.quiet {
		return
	}
	_, _ = fmt.Fprintf(c.w, "> "+format+"\n", args...)
}

// Success writes a green result line.
func (c *Console) Success(format string, args ...any) {
	_, _ = fmt.Fprintln(c.w, successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error writes a red error line.
func (c *Console) Error(format string, args ...any) {
	_, _ = fmt.Fprintln(c.w, errorStyle.Render("[ERROR] "+fmt.Sprintf(format, args...)))
}

// Help writes command synopses in yellow followed by an indented description.
func (c *Console) Help(synopses []string, description string) {
	_, _ = fmt.Fprintln(c.w, helpStyle.Render(strings.Join(synopses, "\n")))
	_, _ = fmt.Fprintln(c.w, "    "+description)
}

// Summary writes the counts of a finished deploy.
func (c *Console) Summary(s SummaryDTO) {
	toolchain := "available"
	if !s.Toolchain {
		toolchain = "not found, gallery only"
	}
	_, _ = fmt.Fprintf(c.w, "  run:         %s\n", s.RunID)
	_, _ = fmt.Fprintf(c.w, "  toolchain:   %s\n", toolchain)
	_, _ = fmt.Fprintf(c.w, "  thumbnails:  %d\n", s.Thumbnails)
	_, _ = fmt.Fprintf(c.w, "  pages:       %d\n", s.Pages)
	_, _ = fmt.Fprintf(c.w, "  artifacts:   %d\n", s.Artifacts)
	_, _ = fmt.Fprintf(c.w, "  screenshots: %d\n", s.Screenshots)
	_, _ = fmt.Fprintf(c.w, "  files:       %d changed (%d created, %d updated), %d unchanged\n",
		s.Changed, s.Created, s.Updated, s.Unchanged)
	_, _ = fmt.Fprintf(c.w, "  templates:   %d loaded, %d reused\n", s.TemplateLoads, s.TemplateHits)
}
