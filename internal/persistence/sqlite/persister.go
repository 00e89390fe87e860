// Package sqlite persists storage areas into a single SQLite table, one JSON
// document per area.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const defaultPath = "gestao.db"

// Persister snapshots whole areas into the `state` table.
type Persister struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// New opens (or creates) the database at path and ensures the schema.
func New(path string) (*Persister, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		area TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Persister{db: db, path: path}, nil
}

// SaveArea upserts the area document.
func (p *Persister) SaveArea(area string, data map[string]string) (retErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", area, err)
	}
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.Exec(`INSERT INTO state(area, payload) VALUES(?, ?)
		ON CONFLICT(area) DO UPDATE SET payload=excluded.payload`, area, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", area, err)
	}
	return tx.Commit()
}

// LoadAll reads every stored area.
func (p *Persister) LoadAll() (map[string]map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows, err := p.db.Query(`SELECT area, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	all := make(map[string]map[string]string)
	for rows.Next() {
		var (
			area    string
			payload []byte
		)
		if err := rows.Scan(&area, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		kv := make(map[string]string)
		if err := json.Unmarshal(payload, &kv); err != nil {
			return nil, fmt.Errorf("decode %s: %w", area, err)
		}
		all[area] = kv
	}
	return all, rows.Err()
}

// Path returns the configured database path.
func (p *Persister) Path() string { return p.path }

// Close releases the database handle.
func (p *Persister) Close() error { return p.db.Close() }
