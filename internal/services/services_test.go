package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/engine"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

var testNow = time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)

func newServices(t *testing.T) (*Services, *database.Repository) {
	t.Helper()
	repo := database.NewRepository(engine.NewMemStore(nil, nil), database.Options{
		Now: func() time.Time { return testNow },
	})
	svc := New(repo, nil, func() time.Time { return testNow })
	svc.Users.SetHashCost(bcrypt.MinCost)
	return svc, repo
}

func validVehicle(plate string) schema.Vehicle {
	return schema.Vehicle{
		Plate: plate, Model: "Gol", Brand: "VW", Year: 2019,
		Kind: "carro", Status: schema.VehicleActive,
	}
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i + 1
	}

	tests := []struct {
		name      string
		page      int
		size      int
		wantItems []int
		wantPage  int
		wantSize  int
		wantPages int
	}{
		{"first page", 1, 10, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1, 10, 3},
		{"last partial page", 3, 10, []int{21, 22, 23, 24, 25}, 3, 10, 3},
		{"past the end", 5, 10, []int{}, 5, 10, 3},
		{"defaults", 0, 0, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1, DefaultPageSize, 3},
		{"clamped size", 1, 1000, items, 1, MaxPageSize, 1},
		{"huge page", math.MaxInt, 10, []int{}, math.MaxInt, 10, 3},
		{"huge page and size", math.MaxInt, math.MaxInt, []int{}, math.MaxInt, MaxPageSize, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, tt.size)
			assert.Equal(t, tt.wantItems, p.Items)
			assert.Equal(t, 25, p.Total)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
			assert.Equal(t, tt.wantPages, p.Pages)
		})
	}

	empty := Paginate([]int(nil), 1, 10)
	assert.Equal(t, []int{}, empty.Items)
	assert.Equal(t, 0, empty.Pages)
}

func TestFilterAndMatch(t *testing.T) {
	vs := []schema.Vehicle{
		{ID: "1", Plate: "ABC1234", Model: "Gol", Status: "ativo"},
		{ID: "2", Plate: "XYZ9876", Model: "Strada", Status: "manutencao"},
		{ID: "3", Plate: "GOL0001", Model: "Uno", Status: "ativo"},
	}
	opts := vehicleOptions()

	got := Filter(vs, "gol", opts.Search)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	got = Match(vs, map[string]string{"status": "ativo"}, opts.Fields)
	assert.Len(t, got, 2)

	got = Match(vs, map[string]string{"status": ""}, opts.Fields)
	assert.Len(t, got, 3, "empty filter values are ignored")

	got = Match(vs, map[string]string{"cor": "azul"}, opts.Fields)
	assert.Empty(t, got)
}

func TestVehicles_CRUD(t *testing.T) {
	svc, _ := newServices(t)
	ctx := database.WithActor(context.Background(), "ana")

	dep, err := svc.Departments.Create(ctx, schema.Department{Name: "Saúde", Acronym: "sms"})
	require.NoError(t, err)
	assert.Equal(t, "SMS", dep.Acronym)

	v := validVehicle("abc-1234")
	v.DepartmentID = dep.ID
	created, err := svc.Vehicles.Create(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, "ABC-1234", created.Plate)
	assert.Equal(t, "Saúde", created.DepartmentName)
	assert.Equal(t, NotInformed, created.FuelTypeName)

	_, err = svc.Vehicles.Create(ctx, validVehicle("ABC1234"))
	assert.Equal(t, map[string]string{"placa": "placa já cadastrada"}, fieldErrors(t, err))

	bad := validVehicle("nope")
	bad.Year = 1900
	fields := fieldErrors(t, func() error { _, err := svc.Vehicles.Create(ctx, bad); return err }())
	assert.Contains(t, fields, "placa")
	assert.Contains(t, fields, "ano")

	created.Status = schema.VehicleMaintenance
	updated, err := svc.Vehicles.Update(ctx, created.ID, created.Vehicle)
	require.NoError(t, err)
	assert.Equal(t, schema.VehicleMaintenance, updated.Status)

	_, err = svc.Vehicles.Update(ctx, "42", validVehicle("QWE1234"))
	assert.True(t, errors.Is(err, database.ErrNotFound))

	page, err := svc.Vehicles.List(ctx, ListParams{Filters: map[string]string{"status": schema.VehicleMaintenance}})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Saúde", page.Items[0].DepartmentName)

	require.NoError(t, svc.Departments.Delete(ctx, dep.ID))
	got, err := svc.Vehicles.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, NotInformed, got.DepartmentName, "dangling reference degrades to the placeholder")

	require.NoError(t, svc.Vehicles.Delete(ctx, created.ID))
	_, err = svc.Vehicles.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, database.ErrNotFound))

	again, err := svc.Vehicles.Create(ctx, validVehicle("ABC1234"))
	require.NoError(t, err)
	assert.Equal(t, "2", again.ID)
}

func TestFuelRecords_View(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	ft, err := svc.FuelTypes.Create(ctx, schema.FuelType{Name: "Diesel S10", UnitPrice: 6.25})
	require.NoError(t, err)
	v, err := svc.Vehicles.Create(ctx, validVehicle("BRA2E19"))
	require.NoError(t, err)

	rec, err := svc.FuelRecords.Create(ctx, schema.FuelRecord{
		VehicleID: v.ID, FuelTypeID: ft.ID, Date: "05/06/2025", Liters: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, "BRA2E19 - Gol", rec.VehicleName)
	assert.Equal(t, "Diesel S10", rec.FuelTypeName)
	assert.Equal(t, 250.0, rec.Value)
	assert.Equal(t, "2025-06-05", rec.DateISO)

	orphan, err := svc.FuelRecords.Create(ctx, schema.FuelRecord{
		VehicleID: "99", FuelTypeID: ft.ID, Date: "05/05/2025", Liters: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, NotInformed, orphan.VehicleName)

	page, err := svc.FuelRecords.List(ctx, ListParams{Filters: map[string]string{"mes": "06/2025"}})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, rec.ID, page.Items[0].ID)

	raw, err := json.Marshal(page.Items[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"veiculoNome":"BRA2E19 - Gol"`)
	assert.Contains(t, string(raw), `"litros":40`)
}

func TestDiaries_Distance(t *testing.T) {
	svc, _ := newServices(t)
	d, err := svc.Diaries.Create(context.Background(), schema.Diary{
		VehicleID: "7", Driver: "José", Date: "01/06/2025",
		OdometerOut: 1000, OdometerIn: 1085.5, Destination: " Zona rural ",
	})
	require.NoError(t, err)
	assert.Equal(t, 85.5, d.Distance)
	assert.Equal(t, "Zona rural", d.Destination)
	assert.Equal(t, NotInformed, d.VehicleName)
}

func TestEmployees_UniqueRegistration(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	e := schema.Employee{Name: "Maria Lima", Registration: "123", Position: "Motorista", Status: schema.EmployeeActive}
	_, err := svc.Employees.Create(ctx, e)
	require.NoError(t, err)

	_, err = svc.Employees.Create(ctx, e)
	assert.Equal(t, map[string]string{"matricula": "matrícula já cadastrada"}, fieldErrors(t, err))
}

func TestUsers(t *testing.T) {
	svc, repo := newServices(t)
	ctx := context.Background()

	_, err := svc.Users.Create(ctx, UserInput{Name: "Ana Souza", Login: "ana", Password: "123"})
	assert.Contains(t, fieldErrors(t, err), "senha")

	ana, err := svc.Users.Create(ctx, UserInput{Name: "Ana Souza", Login: " Ana ", Role: schema.RoleAdmin, Password: "segredo1"})
	require.NoError(t, err)
	assert.Equal(t, "ana", ana.Login)
	assert.True(t, ana.Active)
	assert.Equal(t, "2025-06-20T10:00:00Z", ana.CreatedAt)

	raw, err := json.Marshal(ana)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "senha")

	_, err = svc.Users.Create(ctx, UserInput{Name: "Outra Ana", Login: "ANA", Password: "segredo2"})
	assert.Equal(t, map[string]string{"usuario": "usuário já cadastrado"}, fieldErrors(t, err))

	full, err := svc.Users.FindByLogin(ctx, "ANA")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(full.PasswordHash), []byte("segredo1")))

	// Updating without a password keeps the hash.
	_, err = svc.Users.Update(ctx, ana.ID, UserInput{Name: "Ana S.", Login: "ana", Email: "ANA@prefeitura.gov.br"})
	require.NoError(t, err)
	after, err := svc.Users.FindByLogin(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, full.PasswordHash, after.PasswordHash)
	assert.Equal(t, "ana@prefeitura.gov.br", after.Email)

	inactive := false
	_, err = svc.Users.Update(ctx, ana.ID, UserInput{Name: "Ana S.", Login: "ana", Active: &inactive})
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.ErrorIs(t, svc.Users.Delete(ctx, ana.ID), ErrLastAdmin)

	bob, err := svc.Users.Create(ctx, UserInput{Name: "Roberto", Login: "bob", Role: schema.RoleAdmin, Password: "segredo3"})
	require.NoError(t, err)
	require.NoError(t, svc.Users.Delete(ctx, ana.ID))
	assert.ErrorIs(t, svc.Users.Delete(ctx, "99"), database.ErrNotFound)

	page, err := svc.Users.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, bob.ID, page.Items[0].ID)

	db, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "usuarios.delete", db.Logs[len(db.Logs)-1].Action)
}

func TestLogs_NewestFirst(t *testing.T) {
	svc, _ := newServices(t)

	_, err := svc.Departments.Create(database.WithActor(context.Background(), "ana"), schema.Department{Name: "Obras"})
	require.NoError(t, err)
	_, err = svc.Departments.Create(database.WithActor(context.Background(), "bob"), schema.Department{Name: "Saúde"})
	require.NoError(t, err)

	page, err := svc.Logs.List(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "bob", page.Items[0].User)
	assert.Equal(t, "ana", page.Items[1].User)

	page, err = svc.Logs.List(context.Background(), ListParams{Filters: map[string]string{"user": "ana"}})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Contains(t, page.Items[0].Details, "Obras")
}

func TestDashboard(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	ft, err := svc.FuelTypes.Create(ctx, schema.FuelType{Name: "Gasolina", UnitPrice: 6})
	require.NoError(t, err)
	for _, date := range []string{"01/06/2025", "02/06/2025", "15/05/2025"} {
		_, err := svc.FuelRecords.Create(ctx, schema.FuelRecord{VehicleID: "1", FuelTypeID: ft.ID, Date: date, Liters: 10})
		require.NoError(t, err)
	}

	d, err := svc.Dashboard.Get(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Current.Records)
	assert.Equal(t, 1, d.Previous.Records)
	assert.Equal(t, 100.0, d.Change.Records)
	assert.Equal(t, 120.0, d.Current.Value)
}
