// Package history records every deploy in a SQLite database next to the
// generated site.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/sokol-samples/webpage/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Status is the outcome of a deploy.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded deploy.
type Run struct {
	ID         int64
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Rebuild    bool
	Toolchain  bool
	WebpageDir string
	Samples    int
	Pages      int
	Copied     int
	Status     Status
	Error      string
}

// Duration is how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRunID returns a fresh deploy identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store persists runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+filepath.ToSlash(path)+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug(log.CatHistory, "Opened history database", "path", path)
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	// m.Close would close db as well; the source needs no cleanup.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts r and returns its row id.
func (s *Store) Save(ctx context.Context, r Run) (int64, error) {
	var errText *string
	if r.Error != "" {
		errText = &r.Error
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deploy_runs (
			run_id, started_at, finished_at, rebuild, toolchain, webpage_dir,
			samples, pages, copied, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(), r.Rebuild, r.Toolchain, r.WebpageDir,
		r.Samples, r.Pages, r.Copied, string(r.Status), errText,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert deploy run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	log.Debug(log.CatHistory, "Recorded deploy", "run_id", r.RunID, "status", r.Status)
	return id, nil
}

const runColumns = `id, run_id, started_at, finished_at, rebuild, toolchain, webpage_dir,
	samples, pages, copied, status, error`

func scanRun(scanner interface{ Scan(...any) error }) (Run, error) {
	var (
		r                 Run
		started, finished int64
		status            string
		errText           sql.NullString
	)
	err := scanner.Scan(&r.ID, &r.RunID, &started, &finished, &r.Rebuild, &r.Toolchain, &r.WebpageDir,
		&r.Samples, &r.Pages, &r.Copied, &status, &errText)
	if err != nil {
		return r, err
	}
	r.StartedAt = time.UnixMilli(started)
	r.FinishedAt = time.UnixMilli(finished)
	r.Status = Status(status)
	r.Error = errText.String
	return r, nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM deploy_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deploys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deploy: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
