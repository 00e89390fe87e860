package services

import (
	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

// NotInformed stands in for references that no longer resolve.
const NotInformed = "Não informado"

// Resolver answers soft foreign key lookups against one loaded database.
type Resolver struct {
	vehicles    map[string]schema.Vehicle
	departments map[string]schema.Department
	fuelTypes   map[string]schema.FuelType
}

func NewResolver(db *database.StoredDatabase) *Resolver {
	r := &Resolver{
		vehicles:    make(map[string]schema.Vehicle, len(db.Vehicles)),
		departments: make(map[string]schema.Department, len(db.Departments)),
		fuelTypes:   make(map[string]schema.FuelType, len(db.FuelTypes)),
	}
	for _, v := range db.Vehicles {
		r.vehicles[v.ID] = v
	}
	for _, d := range db.Departments {
		r.departments[d.ID] = d
	}
	for _, f := range db.FuelTypes {
		r.fuelTypes[f.ID] = f
	}
	return r
}

// VehicleName is "PLATE - Model", or NotInformed.
func (r *Resolver) VehicleName(id string) string {
	v, ok := r.vehicles[id]
	if !ok {
		return NotInformed
	}
	if v.Model == "" {
		return v.Plate
	}
	return v.Plate + " - " + v.Model
}

func (r *Resolver) DepartmentName(id string) string {
	if d, ok := r.departments[id]; ok {
		return d.Name
	}
	return NotInformed
}

func (r *Resolver) FuelTypeName(id string) string {
	if f, ok := r.fuelTypes[id]; ok {
		return f.Name
	}
	return NotInformed
}

// FuelPrice is the current unit price, zero when the fuel type is gone.
func (r *Resolver) FuelPrice(id string) float64 {
	return r.fuelTypes[id].UnitPrice
}
