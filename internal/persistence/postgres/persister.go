// Package postgres persists storage areas into Postgres, mirroring the SQLite
// layout: one JSONB document per area.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/gestao?sslmode=disable"
	opTimeout     = 10 * time.Second
)

var sqlOpen = sql.Open

// Persister snapshots whole areas into the gestao_state table.
type Persister struct {
	db *sql.DB
	mu sync.Mutex
}

// New connects to dsn (falls back to defaultDSN) and ensures the table.
func New(ctx context.Context, dsn string) (*Persister, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sqlOpen(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS gestao_state (
		area TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Persister{db: db}, nil
}

// SaveArea upserts the area document.
func (p *Persister) SaveArea(area string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", area, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err = p.db.ExecContext(ctx, `INSERT INTO gestao_state(area, payload, updated_at) VALUES($1, $2, NOW())
		ON CONFLICT(area) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`, area, payload)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", area, err)
	}
	return nil
}

// LoadAll reads every stored area.
func (p *Persister) LoadAll() (map[string]map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `SELECT area, payload FROM gestao_state`)
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

// Close releases the connection pool.
func (p *Persister) Close() error { return p.db.Close() }
