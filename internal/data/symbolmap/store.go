// Package symbolmap persists the code assigned to every mangled symbol of a
// build, so numeric codes seen at run time can be mapped back to names.
package symbolmap

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	coreerrors "weave/internal/core/errors"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Build is one recorded build.
type Build struct {
	ID          string
	Entry       string
	Timestamp   time.Time
	SymbolCount int
}

// Entry maps one code of a build back to the symbol it stands for. Property
// entries carry an empty Namespace.
type Entry struct {
	Code      int64
	Namespace string
	Name      string
	Kind      string
	Uses      int
}

func (e Entry) String() string {
	if e.Namespace == "" {
		return "." + e.Name
	}
	return e.Namespace + ":" + e.Name
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("symbol map path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("symbol map path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create symbol map directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while watch mode rebuilds.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite symbol map %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite symbol map %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveBuild records a build and its entries in one transaction. Saving the
// same build id twice replaces the earlier rows.
func (s *Store) SaveBuild(build Build, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(build.ID) == "" {
		return coreerrors.New(coreerrors.CodeValidationError, "build id must not be empty")
	}
	if build.Timestamp.IsZero() {
		build.Timestamp = time.Now().UTC()
	}
	build.SymbolCount = len(entries)

	return s.withRetry("save build", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM builds WHERE build_id = ?`, build.ID); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO builds (build_id, entry, ts_utc, symbol_count) VALUES (?, ?, ?, ?)`,
			build.ID, build.Entry, build.Timestamp.UTC().Format(time.RFC3339Nano), build.SymbolCount,
		); err != nil {
			_ = tx.Rollback()
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO symbols (build_id, code, namespace, name, kind, uses) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.Exec(build.ID, e.Code, e.Namespace, e.Name, e.Kind, e.Uses); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert code %d: %w", e.Code, err)
			}
		}
		return tx.Commit()
	})
}

// LatestBuild returns the most recent build, or a NOT_FOUND error on an empty
// store.
func (s *Store) LatestBuild() (Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		build Build
		tsRaw string
	)
	err := s.withRetry("load latest build", func() error {
		return s.db.QueryRow(`
SELECT build_id, entry, ts_utc, symbol_count FROM builds
ORDER BY ts_utc DESC, build_id DESC LIMIT 1`).Scan(&build.ID, &build.Entry, &tsRaw, &build.SymbolCount)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, coreerrors.Wrap(err, coreerrors.CodeNotFound, "no build has been recorded")
	}
	if err != nil {
		return Build{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return Build{}, fmt.Errorf("parse build timestamp %q: %w", tsRaw, err)
	}
	build.Timestamp = ts.UTC()
	return build, nil
}

// Lookup maps code back to its symbol in the given build. An empty build id
// means the latest build.
func (s *Store) Lookup(buildID string, code int64) (Entry, error) {
	if buildID == "" {
		latest, err := s.LatestBuild()
		if err != nil {
			return Entry{}, err
		}
		buildID = latest.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var e Entry
	err := s.withRetry("lookup code", func() error {
		return s.db.QueryRow(
			`SELECT code, namespace, name, kind, uses FROM symbols WHERE build_id = ? AND code = ?`,
			buildID, code,
		).Scan(&e.Code, &e.Namespace, &e.Name, &e.Kind, &e.Uses)
	})
	if errors.Is(err, sql.ErrNoRows) {
		de := coreerrors.Newf(coreerrors.CodeNotFound, "code %d is not mapped in build %s", code, buildID)
		de.Err = err
		return Entry{}, de.WithContext(coreerrors.CtxBuildID, buildID)
	}
	return e, err
}

// Entries returns every entry of a build ordered by code.
func (s *Store) Entries(buildID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load entries", func() error {
		var qErr error
		rows, qErr = s.db.Query(
			`SELECT code, namespace, name, kind, uses FROM symbols WHERE build_id = ? ORDER BY code ASC`, buildID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Code, &e.Namespace, &e.Name, &e.Kind, &e.Uses); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}
	return entries, nil
}

// Prune deletes all but the newest keep builds and returns how many were
// removed.
func (s *Store) Prune(keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := s.withRetry("prune builds", func() error {
		res, err := s.db.Exec(`
DELETE FROM builds WHERE build_id NOT IN (
  SELECT build_id FROM builds ORDER BY ts_utc DESC, build_id DESC LIMIT ?
)`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return int(removed), err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
