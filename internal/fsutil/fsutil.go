// Package fsutil writes and copies deploy outputs, reporting what changed.
package fsutil

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change classifies the effect of a write.
type Change int

const (
	Unchanged Change = iota
	Created
	Updated
)

func (c Change) String() string {
	switch c {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Result describes one written file. Inserted and Deleted count lines and
// are only computed for text content.
type Result struct {
	Path     string
	Change   Change
	Inserted int
	Deleted  int
}

// Exists reports whether path exists (file or directory).
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile reports whether path is an existing regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path is an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// EnsureDir creates dir and its parents if missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// WriteFile replaces path with data atomically. Identical content is left
// untouched and reported as Unchanged.
func WriteFile(path string, data []byte) (Result, error) {
	res := Result{Path: path, Change: Created}

	old, err := os.ReadFile(path) //nolint:gosec // path is inside the deploy tree
	switch {
	case err == nil:
		if bytes.Equal(old, data) {
			res.Change = Unchanged
			return res, nil
		}
		res.Change = Updated
		if isText(old) && isText(data) {
			res.Inserted, res.Deleted = lineStats(string(old), string(data))
		}
	case errors.Is(err, fs.ErrNotExist):
		if isText(data) {
			res.Inserted = countLines(string(data))
		}
	default:
		return res, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := writeAtomic(path, data); err != nil {
		return res, err
	}
	return res, nil
}

// CopyFile copies src to dst, overwriting dst.
func CopyFile(src, dst string) (Result, error) {
	data, err := os.ReadFile(src) //nolint:gosec // src is a project asset or build artifact
	if err != nil {
		return Result{Path: dst}, fmt.Errorf("copying %s: %w", src, err)
	}
	return WriteFile(dst, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// lineStats counts inserted and deleted lines between two texts.
func lineStats(before, after string) (inserted, deleted int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deleted += countLines(d.Text)
		}
	}
	return inserted, deleted
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// isText treats content without NUL bytes in its first 8KiB as text.
func isText(data []byte) bool {
	head := data
	if len(head) > 8192 {
		head = head[:8192]
	}
	return bytes.IndexByte(head, 0) < 0
}

// Tally aggregates write results.
type Tally struct {
	Created   int
	Updated   int
	Unchanged int
}

// Add records r.
func (t *Tally) Add(r Result) {
	switch r.Change {
	case Created:
		t.Created++
	case Updated:
		t.Updated++
	default:
		t.Unchanged++
	}
}

// Merge adds other's counts to t.
func (t *Tally) Merge(other Tally) {
	t.Created += other.Created
	t.Updated += other.Updated
	t.Unchanged += other.Unchanged
}

// Changed is the number of files created or updated.
func (t Tally) Changed() int {
	return t.Created + t.Updated
}
