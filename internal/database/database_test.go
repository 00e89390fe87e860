package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-gestao/internal/engine"
	pengine "github.com/celerix-dev/celerix-gestao/pkg/engine"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

var fixedNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func newRepo(t *testing.T, opts Options) (*Repository, *engine.MemStore) {
	t.Helper()
	store := engine.NewMemStore(nil, nil)
	opts.Now = func() time.Time { return fixedNow }
	return NewRepository(store, opts), store
}

func TestAdd_AssignsSequentialIDs(t *testing.T) {
	repo, _ := newRepo(t, Options{})
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		_, err := Add(ctx, repo, Departments, schema.Department{Name: fmt.Sprintf("Dep %d", i)})
		require.NoError(t, err)
	}

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, db.Counters[CollDepartments])

	ids := Departments.ids(db)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
}

func TestDelete_NeverReusesIDs(t *testing.T) {
	repo, _ := newRepo(t, Options{})
	ctx := context.Background()

	first, err := Add(ctx, repo, FuelTypes, schema.FuelType{Name: "Gasolina", UnitPrice: 5.8})
	require.NoError(t, err)
	second, err := Add(ctx, repo, FuelTypes, schema.FuelType{Name: "Diesel", UnitPrice: 6.1})
	require.NoError(t, err)

	require.NoError(t, Delete(ctx, repo, FuelTypes, second.ID))
	require.NoError(t, Delete(ctx, repo, FuelTypes, first.ID))

	third, err := Add(ctx, repo, FuelTypes, schema.FuelType{Name: "Etanol", UnitPrice: 3.9})
	require.NoError(t, err)
	assert.Equal(t, "3", third.ID)
}

func TestNextID_HealsStaleCounter(t *testing.T) {
	repo, store := newRepo(t, Options{})
	ctx := context.Background()

	// Hand-edited data: ids ahead of the counter, plus a non-numeric id.
	require.NoError(t, store.SetItem(pengine.AreaLocal, RootKey,
		`{"veiculos":[{"id":"7","placa":"ABC1234"},{"id":"abc","placa":"XYZ9876"}],"counters":{"veiculos":2}}`))

	v, err := Add(ctx, repo, Vehicles, schema.Vehicle{Plate: "DEF5678"})
	require.NoError(t, err)
	assert.Equal(t, "8", v.ID)

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, db.Counters[CollVehicles])
}

func TestPutAndFind(t *testing.T) {
	repo, _ := newRepo(t, Options{})
	ctx := context.Background()

	emp, err := Add(ctx, repo, Employees, schema.Employee{Name: "Maria", Status: schema.EmployeeActive})
	require.NoError(t, err)

	emp.Position = "Motorista"
	_, err = Put(ctx, repo, Employees, emp)
	require.NoError(t, err)

	got, err := Find(ctx, repo, Employees, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Motorista", got.Position)

	_, err = Find(ctx, repo, Employees, "99")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = Put(ctx, repo, Employees, schema.Employee{ID: "99"})
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(Delete(ctx, repo, Employees, "99"), ErrNotFound))
}

func TestRoundTrip_DeepEqual(t *testing.T) {
	repo, _ := newRepo(t, Options{})
	ctx := context.Background()

	want := Empty()
	want.Vehicles = []schema.Vehicle{{
		ID: "1", Plate: "ABC1D23", Model: "Strada", Brand: "Fiat", Year: 2022,
		Kind: "utilitário", Status: schema.VehicleMaintenance, Odometer: 12345.6,
		Notes: "linha 1\nlinha \"2\"",
	}}
	want.Users = []schema.AdminUser{{ID: "1", Name: "Ana", Login: "ana", Role: schema.RoleAdmin, Active: true}}
	want.Counters = map[string]int{CollVehicles: 1, CollUsers: 1}

	require.NoError(t, repo.Replace(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_CorruptSoftReset(t *testing.T) {
	repo, store := newRepo(t, Options{})
	ctx := context.Background()

	corrupt := `{"veiculos":5}`
	require.NoError(t, store.SetItem(pengine.AreaLocal, RootKey, corrupt))

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	want := Empty()
	want.LegacyImported = true
	assert.Equal(t, want, db)

	preserved, ok := GetItem[string](store.Area(pengine.AreaLocal), CorruptKey, nil)
	require.True(t, ok)
	assert.Equal(t, corrupt, preserved)
}

func TestLoad_CorruptStrict(t *testing.T) {
	repo, store := newRepo(t, Options{Strict: true})
	require.NoError(t, store.SetItem(pengine.AreaLocal, RootKey, `{"veiculos":5}`))

	_, err := repo.Load(context.Background())
	assert.True(t, errors.Is(err, ErrCorruptData))

	err = repo.Update(context.Background(), func(*StoredDatabase) error { return nil })
	assert.True(t, errors.Is(err, ErrCorruptData))

	raw, err := store.GetItem(pengine.AreaLocal, RootKey)
	require.NoError(t, err)
	assert.Equal(t, `{"veiculos":5}`, raw, "strict mode must not overwrite the stored document")
}

func TestLoad_ImportsLegacyKeys(t *testing.T) {
	repo, store := newRepo(t, Options{})
	ctx := context.Background()

	require.NoError(t, store.SetItem(pengine.AreaLocal, legacyDepartmentsKey,
		`[{"id":"1","nome":"Saúde"},{"id":"4","nome":"Obras"}]`))
	require.NoError(t, store.SetItem(pengine.AreaLocal, legacyDiariesKey,
		`[{"id":"2","veiculoId":"1","motorista":"José","data":"01/02/2025","destino":"Centro"}]`))

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, db.Departments, 2)
	require.Len(t, db.Diaries, 1)
	assert.Equal(t, 4, db.Counters[CollDepartments])

	dep, err := Add(ctx, repo, Departments, schema.Department{Name: "Educação"})
	require.NoError(t, err)
	assert.Equal(t, "5", dep.ID)

	_, err = store.GetItem(pengine.AreaLocal, legacyDepartmentsKey)
	assert.NoError(t, err, "legacy key is left in place")
}

func TestLoad_LegacyImportRunsOnce(t *testing.T) {
	repo, store := newRepo(t, Options{})
	ctx := context.Background()

	require.NoError(t, store.SetItem(pengine.AreaLocal, legacyDepartmentsKey,
		`[{"id":"1","nome":"Saúde"},{"id":"4","nome":"Obras"}]`))
	require.NoError(t, store.SetItem(pengine.AreaLocal, legacyDiariesKey,
		`[{"id":"2","veiculoId":"1","motorista":"José","data":"01/02/2025","destino":"Centro"}]`))

	for _, id := range []string{"1", "4"} {
		require.NoError(t, Delete(ctx, repo, Departments, id))
	}
	require.NoError(t, Delete(ctx, repo, Diaries, "2"))

	deps, err := List(ctx, repo, Departments)
	require.NoError(t, err)
	assert.Empty(t, deps, "deleted legacy departments must not come back")
	diaries, err := List(ctx, repo, Diaries)
	require.NoError(t, err)
	assert.Empty(t, diaries, "deleted legacy diaries must not come back")

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, db.LegacyImported)
	assert.Equal(t, 4, db.Counters[CollDepartments])
}

func TestReplace_SkipsLegacyImport(t *testing.T) {
	repo, store := newRepo(t, Options{})
	ctx := context.Background()

	require.NoError(t, store.SetItem(pengine.AreaLocal, legacyDepartmentsKey, `[{"id":"1","nome":"Saúde"}]`))
	require.NoError(t, repo.Replace(ctx, Empty()))

	deps, err := List(ctx, repo, Departments)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestAppendLog_ActorAndRetention(t *testing.T) {
	repo, _ := newRepo(t, Options{MaxLogEntries: 3})
	ctx := WithActor(context.Background(), "ana")

	for i := 0; i < 5; i++ {
		_, err := Add(ctx, repo, Departments, schema.Department{Name: fmt.Sprintf("Dep %d", i)})
		require.NoError(t, err)
	}

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, db.Logs, 3)
	assert.Equal(t, "3", db.Logs[0].ID)
	assert.Equal(t, "5", db.Logs[2].ID)
	assert.Equal(t, 5, db.Counters[CollLogs])

	last := db.Logs[2]
	assert.Equal(t, "ana", last.User)
	assert.Equal(t, "departamentos.create", last.Action)
	assert.Equal(t, "Cadastro de departamento Dep 4 (id 5)", last.Details)
	assert.Equal(t, "2025-03-10T14:30:00.000Z", last.Timestamp)
}

func TestAppendLog_DefaultActor(t *testing.T) {
	repo, _ := newRepo(t, Options{})
	ctx := context.Background()

	_, err := Add(ctx, repo, Departments, schema.Department{Name: "Dep"})
	require.NoError(t, err)

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, db.Logs, 1)
	assert.Equal(t, SystemActor, db.Logs[0].User)
}

func TestUpdate_ErrorLeavesStoreUntouched(t *testing.T) {
	repo, store := newRepo(t, Options{})
	boom := errors.New("boom")

	err := repo.Update(context.Background(), func(db *StoredDatabase) error {
		Vehicles.Insert(db, schema.Vehicle{Plate: "ABC1234"})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.GetItem(pengine.AreaLocal, RootKey)
	assert.ErrorIs(t, err, pengine.ErrKeyNotFound)
}

func TestAdd_Concurrent(t *testing.T) {
	repo, _ := newRepo(t, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := Add(ctx, repo, Requests, schema.Request{Title: "t"})
			if err == nil {
				ids <- req.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}

func TestGetItem_FailSoft(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	scope := store.Area(pengine.AreaLocal)

	_, ok := GetItem[schema.SessionUser](scope, "user", nil)
	assert.False(t, ok)

	require.NoError(t, scope.SetItem("user", `[1,2,3]`))
	u, ok := GetItem[schema.SessionUser](scope, "user", nil)
	assert.False(t, ok)
	assert.Equal(t, schema.SessionUser{}, u)

	require.NoError(t, SetItem(scope, "user", schema.SessionUser{Name: "Ana", Role: "admin"}))
	u, ok = GetItem[schema.SessionUser](scope, "user", nil)
	assert.True(t, ok)
	assert.Equal(t, "Ana", u.Name)
}

func TestAdd_CheckAbortsWrite(t *testing.T) {
	repo, _ := newRepo(t, Options{})
	ctx := context.Background()
	dup := errors.New("duplicate")

	noDup := func(db *StoredDatabase, v schema.Vehicle) error {
		for _, existing := range db.Vehicles {
			if existing.Plate == v.Plate && existing.ID != v.ID {
				return dup
			}
		}
		return nil
	}

	first, err := Add(ctx, repo, Vehicles, schema.Vehicle{Plate: "ABC1234"}, noDup)
	require.NoError(t, err)

	_, err = Add(ctx, repo, Vehicles, schema.Vehicle{Plate: "ABC1234"}, noDup)
	assert.ErrorIs(t, err, dup)

	_, err = Put(ctx, repo, Vehicles, Vehicles.WithID(schema.Vehicle{Plate: "ABC1234", Model: "Uno"}, first.ID), noDup)
	require.NoError(t, err)

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, db.Vehicles, 1)
	assert.Equal(t, 1, db.Counters[CollVehicles])
	assert.Len(t, db.Logs, 2)
}
