// Package database keeps every gestao collection in one JSON document stored
// under RootKey in the persistent area of an engine.Store. Each mutation
// loads the whole document, changes it and writes it back.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-gestao/pkg/engine"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

const (
	// RootKey holds the StoredDatabase document.
	RootKey = "sistema-gestao-data"
	// CorruptKey receives an undecodable root document before it is reset.
	CorruptKey = RootKey + ".corrupt"

	legacyDepartmentsKey = "departamentos"
	legacyDiariesKey     = "diariosData"
)

// StoredDatabase is the root document. Counters maps a collection name to
// the last ID handed out in it.
type StoredDatabase struct {
	Vehicles    []schema.Vehicle    `json:"veiculos"`
	Employees   []schema.Employee   `json:"funcionarios"`
	Departments []schema.Department `json:"departamentos"`
	FuelTypes   []schema.FuelType   `json:"combustiveis"`
	FuelRecords []schema.FuelRecord `json:"abastecimentos"`
	Requests    []schema.Request    `json:"solicitacoes"`
	Diaries     []schema.Diary      `json:"diarios"`
	Users       []schema.AdminUser  `json:"usuarios"`
	Logs        []schema.LogEntry   `json:"logs"`
	Counters    map[string]int      `json:"counters"`
	// LegacyImported is set once the standalone keys of older releases have
	// been looked at, so emptied collections are not filled again.
	LegacyImported bool `json:"legadoImportado,omitempty"`
}

// Empty returns a database with every collection present and empty.
func Empty() *StoredDatabase {
	db := &StoredDatabase{}
	db.normalize()
	return db
}

// normalize replaces nil collections so they encode as [] instead of null.
func (db *StoredDatabase) normalize() {
	if db.Vehicles == nil {
		db.Vehicles = []schema.Vehicle{}
	}
	if db.Employees == nil {
		db.Employees = []schema.Employee{}
	}
	if db.Departments == nil {
		db.Departments = []schema.Department{}
	}
	if db.FuelTypes == nil {
		db.FuelTypes = []schema.FuelType{}
	}
	if db.FuelRecords == nil {
		db.FuelRecords = []schema.FuelRecord{}
	}
	if db.Requests == nil {
		db.Requests = []schema.Request{}
	}
	if db.Diaries == nil {
		db.Diaries = []schema.Diary{}
	}
	if db.Users == nil {
		db.Users = []schema.AdminUser{}
	}
	if db.Logs == nil {
		db.Logs = []schema.LogEntry{}
	}
	if db.Counters == nil {
		db.Counters = map[string]int{}
	}
}

// Options tunes a Repository.
type Options struct {
	// MaxLogEntries caps the audit log; the oldest entries are dropped first.
	// Zero keeps every entry.
	MaxLogEntries int
	// Strict makes Load fail with ErrCorruptData instead of resetting.
	Strict bool
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Repository is the only writer of the root document.
type Repository struct {
	scope engine.AreaScope
	opts  Options
	log   *slog.Logger

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewRepository binds a Repository to the persistent area of store.
func NewRepository(store engine.Store, opts Options) *Repository {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Repository{
		scope: store.Area(engine.AreaLocal),
		opts:  opts,
		log:   opts.Logger.With(slog.String("component", "database")),
	}
}

// Load returns the current document. A missing document yields an empty
// database with any legacy standalone collections imported.
func (r *Repository) Load(ctx context.Context) (*StoredDatabase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Update loads the document, applies fn and writes the result back. Nothing
// is written when fn fails.
func (r *Repository) Update(ctx context.Context, fn func(db *StoredDatabase) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	db, err := r.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	return r.save(db)
}

// Replace overwrites the whole document, counters included. The apply
// functions run on db before the single write, under the same lock.
func (r *Repository) Replace(ctx context.Context, db *StoredDatabase, apply ...func(db *StoredDatabase)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	db.normalize()
	db.LegacyImported = true
	for _, name := range collectionNames {
		healCounter(db, name)
	}
	for _, fn := range apply {
		fn(db)
	}
	return r.save(db)
}

func (r *Repository) load(ctx context.Context) (*StoredDatabase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := r.scope.GetItem(RootKey)
	switch {
	case errors.Is(err, engine.ErrKeyNotFound):
		db := Empty()
		r.importLegacy(db)
		return db, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", RootKey, err)
	}

	db := &StoredDatabase{}
	if err := json.Unmarshal([]byte(raw), db); err != nil {
		if r.opts.Strict {
			return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
		}
		r.log.Error("stored database is corrupt, starting empty",
			slog.Any("error", err), slog.String("preserved_as", CorruptKey))
		if serr := SetItem(r.scope, CorruptKey, raw); serr != nil {
			r.log.Error("preserve corrupt database", slog.Any("error", serr))
		}
		db = Empty()
		r.importLegacy(db)
		return db, nil
	}
	db.normalize()
	r.importLegacy(db)
	return db, nil
}

func (r *Repository) save(db *StoredDatabase) error {
	if err := SetItem(r.scope, RootKey, db); err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	return nil
}

// importLegacy fills empty collections from the standalone keys older
// releases wrote. It runs until the document records that it has, which
// happens with the next write. The legacy keys themselves are left as they
// are.
func (r *Repository) importLegacy(db *StoredDatabase) {
	if db.LegacyImported {
		return
	}
	db.LegacyImported = true
	if len(db.Departments) == 0 {
		if deps, ok := GetItem[[]schema.Department](r.scope, legacyDepartmentsKey, r.log); ok && len(deps) > 0 {
			db.Departments = deps
			healCounter(db, Departments.Name)
		}
	}
	if len(db.Diaries) == 0 {
		if diaries, ok := GetItem[[]schema.Diary](r.scope, legacyDiariesKey, r.log); ok && len(diaries) > 0 {
			db.Diaries = diaries
			healCounter(db, Diaries.Name)
		}
	}
}

// timestamp formats t the way the audit log stores it.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
