// Package cache persists the last successful sync so the dashboard can render
// before the first fetch completes and keep showing data when the server is
// unreachable.
package cache

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"shelfwatch/internal/api"
)

// Snapshot is the cached result of one full sync.
type Snapshot struct {
	Inventory  api.Inventory  `json:"inventory"`
	Categories []api.Category `json:"categories"`
}

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS snapshot (
	key TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	saved_at TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

// Save replaces the stored snapshot wholesale. Partial snapshots are never
// written; the dashboard only ever restores a consistent sync.
func (s *Store) Save(snap Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO snapshot (key, body, saved_at) VALUES ('sync', ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at;`,
		string(body), now)
	return err
}

// Load returns the stored snapshot, or ok=false when nothing has been cached
// yet. A corrupt row is treated as absent rather than fatal.
func (s *Store) Load() (Snapshot, bool, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM snapshot WHERE key = 'sync';`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
