package presentation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsole_Progress(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Progress("adding thumbnail for %s", "clear")
	require.Equal(t, "> adding thumbnail for clear\n", buf.String())

	buf.Reset()
	c.SetQuiet(true)
	c.Progress("copy file: %s", "dummy.jpg")
	require.Empty(t, buf.String())
}

func TestConsole_SuccessAndError(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.SetQuiet(true)

	c.Success("Generated Samples web page under %s.", "/ws/fips-deploy/sokol-webpage")
	c.Error("Param 'build' or 'serve' expected")

	out := buf.String()
	require.Contains(t, out, "Generated Samples web page under /ws/fips-deploy/sokol-webpage.")
	require.Contains(t, out, "[ERROR] Param 'build' or 'serve' expected")
}

func TestConsole_Help(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Help([]string{"webpage build", "webpage serve"}, "build sokol samples webpage")

	require.Contains(t, buf.String(), "webpage build\nwebpage serve")
	require.Contains(t, buf.String(), "    build sokol samples webpage\n")
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Summary(SummaryDTO{
		RunID:      "run-1",
		Thumbnails: 22,
		Created:    3,
		Updated:    1,
		Unchanged:  5,
		Changed:    4,

		TemplateLoads: 2,
		TemplateHits:  43,
	})

	out := buf.String()
	require.Contains(t, out, "run:         run-1")
	require.Contains(t, out, "not found, gallery only")
	require.Contains(t, out, "thumbnails:  22")
	require.Contains(t, out, "files:       4 changed (3 created, 1 updated), 5 unchanged")
	require.Contains(t, out, "templates:   2 loaded, 43 reused")
}
