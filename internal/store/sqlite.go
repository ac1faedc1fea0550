package store

import (
	"database/sql"
	"fmt"
	"sync"
)

// Current schema version
const SchemaVersion = "2"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS macros (
			prefix TEXT NOT NULL,
			name TEXT NOT NULL,
			body TEXT NOT NULL,
			uses INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (prefix, name)
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	if version == "" || version == "1" {
		// New DB or migrate from v1 to v2: add history table
		if err := s.migrateToV2(); err != nil {
			db.Close()
			return nil, err
		}
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	} else if version != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// migrateToV2 creates the version history table and seeds it with the
// current definitions.
func (s *SQLite) migrateToV2() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS macro_history (
			prefix TEXT NOT NULL,
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			body TEXT NOT NULL,
			ts TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (prefix, name, version)
		);
		INSERT OR IGNORE INTO macro_history (prefix, name, version, body)
			SELECT prefix, name, 1, body FROM macros;
	`)
	return err
}

// Get retrieves a definition.
func (s *SQLite) Get(prefix rune, name string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{Prefix: prefix, Name: name}
	err := s.db.QueryRow("SELECT body, uses FROM macros WHERE prefix = ? AND name = ?",
		string(prefix), name).Scan(&e.Body, &e.Uses)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Put stores a definition. A changed body is recorded as a new version.
func (s *SQLite) Put(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p := string(e.Prefix)
	var last sql.NullString
	var version int
	err = tx.QueryRow(`
		SELECT body, version FROM macro_history
		WHERE prefix = ? AND name = ? ORDER BY version DESC LIMIT 1
	`, p, e.Name).Scan(&last, &version)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if !last.Valid || last.String != e.Body {
		if _, err := tx.Exec(`
			INSERT INTO macro_history (prefix, name, version, body) VALUES (?, ?, ?, ?)
		`, p, e.Name, version+1, e.Body); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO macros (prefix, name, body, uses) VALUES (?, ?, ?, ?)
		ON CONFLICT(prefix, name) DO UPDATE SET body = excluded.body, uses = excluded.uses
	`, p, e.Name, e.Body, e.Uses); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a definition and all its versions.
func (s *SQLite) Delete(prefix rune, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM macro_history WHERE prefix = ? AND name = ?", string(prefix), name); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM macros WHERE prefix = ? AND name = ?", string(prefix), name)
	return err
}

// List returns the definitions of prefix, or all of them for prefix 0.
func (s *SQLite) List(prefix rune) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT prefix, name, body, uses FROM macros"
	var args []any
	if prefix != 0 {
		query += " WHERE prefix = ?"
		args = append(args, string(prefix))
	}
	rows, err := s.db.Query(query+" ORDER BY prefix, name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var p string
		var e Entry
		if err := rows.Scan(&p, &e.Name, &e.Body, &e.Uses); err != nil {
			return nil, err
		}
		for _, r := range p {
			e.Prefix = r
			break
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetHistory returns the versions of a definition, newest first. A limit of
// 0 returns all of them.
func (s *SQLite) GetHistory(prefix rune, name string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT version, body, ts FROM macro_history
		WHERE prefix = ? AND name = ? ORDER BY version DESC`
	args := []any{string(prefix), name}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VersionEntry
	for rows.Next() {
		var v VersionEntry
		if err := rows.Scan(&v.Version, &v.Body, &v.Ts); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
