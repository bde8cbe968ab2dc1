package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), Run{
		RunID: NewRunID(), StartedAt: time.Now(), FinishedAt: time.Now(),
		WebpageDir: "/ws/fips-deploy/sokol-webpage", Status: StatusSucceeded,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err, "migrations must be idempotent")
	defer func() { _ = s2.Close() }()
	runs, err := s2.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestList_Empty(t *testing.T) {
	s := openStore(t)
	runs, err := s.List(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestSaveAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.Save(ctx, Run{
		RunID: "first", StartedAt: base, FinishedAt: base.Add(time.Second),
		WebpageDir: "/out", Status: StatusSucceeded, Samples: 22,
	})
	require.NoError(t, err)
	id, err := s.Save(ctx, Run{
		RunID: "second", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + 3*time.Second),
		Rebuild: true, Toolchain: true, WebpageDir: "/out",
		Samples: 22, Pages: 44, Copied: 88,
		Status: StatusFailed, Error: "build command failed",
	})
	require.NoError(t, err)
	require.Positive(t, id)

	runs, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	latest := runs[0]
	require.Equal(t, "second", latest.RunID)
	require.Equal(t, id, latest.ID)
	require.True(t, latest.Rebuild)
	require.True(t, latest.Toolchain)
	require.Equal(t, 44, latest.Pages)
	require.Equal(t, 88, latest.Copied)
	require.Equal(t, StatusFailed, latest.Status)
	require.Equal(t, "build command failed", latest.Error)
	require.Equal(t, 3*time.Second, latest.Duration())
	require.True(t, latest.StartedAt.Equal(base.Add(time.Minute)))
}

func TestSave_DuplicateRunID(t *testing.T) {
	s := openStore(t)
	r := Run{RunID: "dup", StartedAt: time.Now(), FinishedAt: time.Now(), WebpageDir: "/out", Status: StatusSucceeded}
	_, err := s.Save(context.Background(), r)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), r)
	require.Error(t, err)
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NotEqual(t, id, NewRunID())
}

func TestList_NewestFirstProperty(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0

	rapid.Check(t, func(rt *rapid.T) {
		offset := rapid.IntRange(0, 1_000_000).Draw(rt, "offset")
		n++
		started := base.Add(time.Duration(offset) * time.Millisecond)
		_, err := s.Save(ctx, Run{
			RunID: NewRunID(), StartedAt: started, FinishedAt: started,
			WebpageDir: "/out", Status: StatusSucceeded,
		})
		require.NoError(rt, err)

		runs, err := s.List(ctx, n)
		require.NoError(rt, err)
		require.Len(rt, runs, n)
		for i := 1; i < len(runs); i++ {
			require.False(rt, runs[i].StartedAt.After(runs[i-1].StartedAt))
		}
	})
}
