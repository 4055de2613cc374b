// Package store persists editor state between runs: the current project,
// the user's editing position and a history of exported files. It is backed
// by SQLite and owns its data directory through a lock file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/store/migrations"
)

const (
	dbFilename   = "manuscript.db"
	lockFilename = "manuscript.lock"
	currentKey   = "current"
)

var (
	// ErrNotFound is returned when a "current" record has not been saved yet.
	ErrNotFound = errors.New("record not found")
	// ErrLocked is returned when another process owns the data directory.
	ErrLocked = errors.New("data directory is in use by another process")
)

// UserState is where the user left off in the editor.
type UserState struct {
	CurrentChapterID string
	CursorOffset     int
	ScrollTop        int
	SidebarOpen      bool
	Theme            string
	UpdatedAt        time.Time
}

// HistoryRecord is one exported file.
type HistoryRecord struct {
	ID        string
	Filename  string
	Format    string
	Size      int64
	CreatedAt time.Time
}

// Store is the SQLite-backed cache.
type Store struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger *zap.Logger
	now    func() time.Time
}

// Open locks dataDir and opens (creating if needed) the database inside it.
// It fails with ErrLocked when another process holds the directory.
func Open(dataDir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFilename))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dataDir)
	}

	dbPath := filepath.Join(dataDir, dbFilename)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: dbPath, lock: lock, logger: logger, now: time.Now}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Debug("store opened", zap.String("path", dbPath))
	return s, nil
}

// Close closes the database and releases the directory lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
		err = fmt.Errorf("release lock: %w", unlockErr)
	}
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every NNN_name.up.sql newer than the recorded version.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := s.applyMigration(ctx, version, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		s.logger.Debug("migration applied", zap.String("name", name))
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, content); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// GetUserState returns the saved editing position.
func (s *Store) GetUserState(ctx context.Context) (UserState, error) {
	var (
		st      UserState
		sidebar int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT current_chapter_id, cursor_offset, scroll_top, sidebar_open, theme, updated_at
		FROM user_state WHERE key = ?
	`, currentKey).Scan(&st.CurrentChapterID, &st.CursorOffset, &st.ScrollTop, &sidebar, &st.Theme, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return UserState{}, ErrNotFound
	}
	if err != nil {
		return UserState{}, fmt.Errorf("get user state: %w", err)
	}
	st.SidebarOpen = sidebar != 0
	return st, nil
}

// PutUserState replaces the saved editing position. UpdatedAt is stamped
// with the current time.
func (s *Store) PutUserState(ctx context.Context, st UserState) error {
	sidebar := 0
	if st.SidebarOpen {
		sidebar = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_state (key, current_chapter_id, cursor_offset, scroll_top, sidebar_open, theme, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			current_chapter_id = excluded.current_chapter_id,
			cursor_offset = excluded.cursor_offset,
			scroll_top = excluded.scroll_top,
			sidebar_open = excluded.sidebar_open,
			theme = excluded.theme,
			updated_at = excluded.updated_at
	`, currentKey, st.CurrentChapterID, st.CursorOffset, st.ScrollTop, sidebar, st.Theme, s.now().UTC())
	if err != nil {
		return fmt.Errorf("put user state: %w", err)
	}
	return nil
}

// GetProject returns the current project.
func (s *Store) GetProject(ctx context.Context) (book.Project, error) {
	var (
		data    string
		savedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, "SELECT data, saved_at FROM projects WHERE key = ?", currentKey).Scan(&data, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Project{}, ErrNotFound
	}
	if err != nil {
		return book.Project{}, fmt.Errorf("get project: %w", err)
	}

	var p book.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return book.Project{}, fmt.Errorf("decode project: %w", err)
	}
	p.SavedAt = savedAt
	return p, nil
}

// PutProject replaces the current project and returns the time it was saved.
func (s *Store) PutProject(ctx context.Context, p book.Project) (time.Time, error) {
	p.SavedAt = s.now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode project: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (key, data, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at
	`, currentKey, string(data), p.SavedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("put project: %w", err)
	}
	s.logger.Debug("project saved",
		zap.String("title", p.Metadata.Title),
		zap.Int("chapters", len(p.Chapters)),
	)
	return p.SavedAt, nil
}

// AppendHistory records an exported file. Missing ID and CreatedAt are
// filled in.
func (s *Store) AppendHistory(ctx context.Context, rec HistoryRecord) (HistoryRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_history (id, filename, format, size, created_at) VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Filename, rec.Format, rec.Size, rec.CreatedAt)
	if err != nil {
		return HistoryRecord{}, fmt.Errorf("append history: %w", err)
	}
	return rec, nil
}

// ListHistory returns exported files, newest first. A non-positive limit
// returns everything.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]HistoryRecord, error) {
	query := "SELECT id, filename, format, size, created_at FROM file_history ORDER BY created_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := []HistoryRecord{}
	for rows.Next() {
		var rec HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Format, &rec.Size, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// Clear removes the user state, the current project and all history.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"user_state", "projects", "file_history"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	s.logger.Info("store cleared")
	return nil
}
