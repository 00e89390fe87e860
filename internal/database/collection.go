package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

// Collection names, used as JSON keys and counter keys.
const (
	CollVehicles    = "veiculos"
	CollEmployees   = "funcionarios"
	CollDepartments = "departamentos"
	CollFuelTypes   = "combustiveis"
	CollFuelRecords = "abastecimentos"
	CollRequests    = "solicitacoes"
	CollDiaries     = "diarios"
	CollUsers       = "usuarios"
	CollLogs        = "logs"
)

// Collection describes one array of records inside StoredDatabase.
type Collection[T any] struct {
	Name  string
	Label string

	items    func(db *StoredDatabase) *[]T
	id       func(rec *T) *string
	describe func(rec T) string
}

var (
	Vehicles = Collection[schema.Vehicle]{
		Name: CollVehicles, Label: "veículo",
		items:    func(db *StoredDatabase) *[]schema.Vehicle { return &db.Vehicles },
		id:       func(r *schema.Vehicle) *string { return &r.ID },
		describe: func(r schema.Vehicle) string { return r.Plate },
	}
	Employees = Collection[schema.Employee]{
		Name: CollEmployees, Label: "funcionário",
		items:    func(db *StoredDatabase) *[]schema.Employee { return &db.Employees },
		id:       func(r *schema.Employee) *string { return &r.ID },
		describe: func(r schema.Employee) string { return r.Name },
	}
	Departments = Collection[schema.Department]{
		Name: CollDepartments, Label: "departamento",
		items:    func(db *StoredDatabase) *[]schema.Department { return &db.Departments },
		id:       func(r *schema.Department) *string { return &r.ID },
		describe: func(r schema.Department) string { return r.Name },
	}
	FuelTypes = Collection[schema.FuelType]{
		Name: CollFuelTypes, Label: "combustível",
		items:    func(db *StoredDatabase) *[]schema.FuelType { return &db.FuelTypes },
		id:       func(r *schema.FuelType) *string { return &r.ID },
		describe: func(r schema.FuelType) string { return r.Name },
	}
	FuelRecords = Collection[schema.FuelRecord]{
		Name: CollFuelRecords, Label: "abastecimento",
		items:    func(db *StoredDatabase) *[]schema.FuelRecord { return &db.FuelRecords },
		id:       func(r *schema.FuelRecord) *string { return &r.ID },
		describe: func(r schema.FuelRecord) string { return r.Date },
	}
	Requests = Collection[schema.Request]{
		Name: CollRequests, Label: "solicitação",
		items:    func(db *StoredDatabase) *[]schema.Request { return &db.Requests },
		id:       func(r *schema.Request) *string { return &r.ID },
		describe: func(r schema.Request) string { return r.Title },
	}
	Diaries = Collection[schema.Diary]{
		Name: CollDiaries, Label: "diário",
		items:    func(db *StoredDatabase) *[]schema.Diary { return &db.Diaries },
		id:       func(r *schema.Diary) *string { return &r.ID },
		describe: func(r schema.Diary) string { return r.Date },
	}
	Users = Collection[schema.AdminUser]{
		Name: CollUsers, Label: "usuário",
		items:    func(db *StoredDatabase) *[]schema.AdminUser { return &db.Users },
		id:       func(r *schema.AdminUser) *string { return &r.ID },
		describe: func(r schema.AdminUser) string { return r.Login },
	}
	Logs = Collection[schema.LogEntry]{
		Name: CollLogs, Label: "log",
		items:    func(db *StoredDatabase) *[]schema.LogEntry { return &db.Logs },
		id:       func(r *schema.LogEntry) *string { return &r.ID },
		describe: func(r schema.LogEntry) string { return r.Action },
	}
)

var collectionIDs = map[string]func(db *StoredDatabase) []string{
	CollVehicles:    Vehicles.ids,
	CollEmployees:   Employees.ids,
	CollDepartments: Departments.ids,
	CollFuelTypes:   FuelTypes.ids,
	CollFuelRecords: FuelRecords.ids,
	CollRequests:    Requests.ids,
	CollDiaries:     Diaries.ids,
	CollUsers:       Users.ids,
	CollLogs:        Logs.ids,
}

var collectionNames = []string{
	CollVehicles, CollEmployees, CollDepartments, CollFuelTypes, CollFuelRecords,
	CollRequests, CollDiaries, CollUsers, CollLogs,
}

// ID returns the id of rec.
func (c Collection[T]) ID(rec T) string { return *c.id(&rec) }

// WithID returns rec with its id set to id.
func (c Collection[T]) WithID(rec T, id string) T {
	*c.id(&rec) = id
	return rec
}

func (c Collection[T]) ids(db *StoredDatabase) []string {
	items := *c.items(db)
	out := make([]string, len(items))
	for i := range items {
		out[i] = *c.id(&items[i])
	}
	return out
}

func (c Collection[T]) details(rec T) string {
	return fmt.Sprintf("%s %s (id %s)", c.Label, c.describe(rec), c.ID(rec))
}

// Items returns a copy of the collection held in db.
func (c Collection[T]) Items(db *StoredDatabase) []T {
	items := *c.items(db)
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// Lookup finds a record by id in db.
func (c Collection[T]) Lookup(db *StoredDatabase, id string) (T, bool) {
	for _, rec := range *c.items(db) {
		if c.ID(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Insert assigns the next id to rec and appends it.
func (c Collection[T]) Insert(db *StoredDatabase, rec T) T {
	*c.id(&rec) = strconv.Itoa(nextID(db, c.Name))
	items := c.items(db)
	*items = append(*items, rec)
	return rec
}

// Modify replaces the record that has rec's id.
func (c Collection[T]) Modify(db *StoredDatabase, rec T) error {
	items := *c.items(db)
	for i := range items {
		if c.ID(items[i]) == c.ID(rec) {
			items[i] = rec
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", c.Name, c.ID(rec), ErrNotFound)
}

// Remove deletes the record with id. The counter is left alone so the id is
// never handed out again.
func (c Collection[T]) Remove(db *StoredDatabase, id string) (T, error) {
	items := c.items(db)
	for i, rec := range *items {
		if c.ID(rec) == id {
			*items = append((*items)[:i:i], (*items)[i+1:]...)
			return rec, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s %s: %w", c.Name, id, ErrNotFound)
}

// nextID mints an id one above both the stored counter and the largest
// numeric id present, then records it.
func nextID(db *StoredDatabase, name string) int {
	healCounter(db, name)
	db.Counters[name]++
	return db.Counters[name]
}

// healCounter raises counters[name] to the largest numeric id in the collection.
func healCounter(db *StoredDatabase, name string) {
	if db.Counters == nil {
		db.Counters = map[string]int{}
	}
	ids, ok := collectionIDs[name]
	if !ok {
		return
	}
	for _, id := range ids(db) {
		if n, err := strconv.Atoi(id); err == nil && n > db.Counters[name] {
			db.Counters[name] = n
		}
	}
}

// List returns every record of c.
func List[T any](ctx context.Context, r *Repository, c Collection[T]) ([]T, error) {
	db, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Items(db), nil
}

// Find returns the record of c with id, or ErrNotFound.
func Find[T any](ctx context.Context, r *Repository, c Collection[T], id string) (T, error) {
	db, err := r.Load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	rec, ok := c.Lookup(db, id)
	if !ok {
		return rec, fmt.Errorf("%s %s: %w", c.Name, id, ErrNotFound)
	}
	return rec, nil
}

// Check inspects the loaded database before a write; a non-nil error aborts it.
type Check[T any] func(db *StoredDatabase, rec T) error

func runChecks[T any](db *StoredDatabase, rec T, checks []Check[T]) error {
	for _, check := range checks {
		if err := check(db, rec); err != nil {
			return err
		}
	}
	return nil
}

// Add stores rec under a fresh id and records the change in the audit log.
func Add[T any](ctx context.Context, r *Repository, c Collection[T], rec T, checks ...Check[T]) (T, error) {
	var created T
	err := r.Update(ctx, func(db *StoredDatabase) error {
		if err := runChecks(db, rec, checks); err != nil {
			return err
		}
		created = c.Insert(db, rec)
		r.AppendLog(ctx, db, c.Name+".create", "Cadastro de "+c.details(created))
		return nil
	})
	return created, err
}

// Put replaces the record with rec's id.
func Put[T any](ctx context.Context, r *Repository, c Collection[T], rec T, checks ...Check[T]) (T, error) {
	err := r.Update(ctx, func(db *StoredDatabase) error {
		if _, ok := c.Lookup(db, c.ID(rec)); !ok {
			return fmt.Errorf("%s %s: %w", c.Name, c.ID(rec), ErrNotFound)
		}
		if err := runChecks(db, rec, checks); err != nil {
			return err
		}
		if err := c.Modify(db, rec); err != nil {
			return err
		}
		r.AppendLog(ctx, db, c.Name+".update", "Atualização de "+c.details(rec))
		return nil
	})
	return rec, err
}

// Delete removes the record with id.
func Delete[T any](ctx context.Context, r *Repository, c Collection[T], id string) error {
	return r.Update(ctx, func(db *StoredDatabase) error {
		removed, err := c.Remove(db, id)
		if err != nil {
			return err
		}
		r.AppendLog(ctx, db, c.Name+".delete", "Exclusão de "+c.details(removed))
		return nil
	})
}

// AppendLog adds an audit entry attributed to the actor in ctx and applies
// the retention limit.
func (r *Repository) AppendLog(ctx context.Context, db *StoredDatabase, action, details string) {
	Logs.Insert(db, schema.LogEntry{
		Timestamp: timestamp(r.opts.Now()),
		Action:    action,
		User:      ActorFrom(ctx),
		Details:   details,
	})
	if limit := r.opts.MaxLogEntries; limit > 0 && len(db.Logs) > limit {
		kept := make([]schema.LogEntry, limit)
		copy(kept, db.Logs[len(db.Logs)-limit:])
		db.Logs = kept
	}
}
