// Package stats computes the dashboard figures from a loaded database.
package stats

import (
	"math"
	"time"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

// PercentChange is the relative change from prev to cur in percent. A zero
// prev yields 100 when cur grew and 0 otherwise.
func PercentChange(cur, prev float64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return (cur - prev) / prev * 100
}

// MonthTotals aggregates the fuel records of one calendar month.
type MonthTotals struct {
	Month   string  `json:"mes"`
	Records int     `json:"registros"`
	Liters  float64 `json:"litros"`
	Value   float64 `json:"valor"`
}

// Change holds the percentage change of each month total.
type Change struct {
	Records float64 `json:"registros"`
	Liters  float64 `json:"litros"`
	Value   float64 `json:"valor"`
}

type Dashboard struct {
	Current  MonthTotals `json:"mesAtual"`
	Previous MonthTotals `json:"mesAnterior"`
	Change   Change      `json:"variacao"`

	Vehicles            int `json:"veiculos"`
	ActiveVehicles      int `json:"veiculosAtivos"`
	MaintenanceVehicles int `json:"veiculosManutencao"`
	Employees           int `json:"funcionarios"`
	Departments         int `json:"departamentos"`
	PendingRequests     int `json:"solicitacoesPendentes"`
}

// Compute builds the dashboard for the month containing ref. Fuel records
// are valued at each fuel type's current price. now resolves unparsable
// record dates.
func Compute(db *database.StoredDatabase, ref, now time.Time) Dashboard {
	prices := make(map[string]float64, len(db.FuelTypes))
	for _, ft := range db.FuelTypes {
		prices[ft.ID] = ft.UnitPrice
	}

	curStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	prevStart := curStart.AddDate(0, -1, 0)

	d := Dashboard{
		Current:     MonthTotals{Month: curStart.Format("01/2006")},
		Previous:    MonthTotals{Month: prevStart.Format("01/2006")},
		Employees:   len(db.Employees),
		Departments: len(db.Departments),
		Vehicles:    len(db.Vehicles),
	}

	for _, rec := range db.FuelRecords {
		date := ParseDate(rec.Date, now.In(ref.Location()))
		var bucket *MonthTotals
		switch {
		case sameMonth(date, curStart):
			bucket = &d.Current
		case sameMonth(date, prevStart):
			bucket = &d.Previous
		default:
			continue
		}
		bucket.Records++
		bucket.Liters += rec.Liters
		bucket.Value += rec.Liters * prices[rec.FuelTypeID]
	}
	d.Current.Liters, d.Current.Value = round2(d.Current.Liters), round2(d.Current.Value)
	d.Previous.Liters, d.Previous.Value = round2(d.Previous.Liters), round2(d.Previous.Value)

	d.Change = Change{
		Records: round2(PercentChange(float64(d.Current.Records), float64(d.Previous.Records))),
		Liters:  round2(PercentChange(d.Current.Liters, d.Previous.Liters)),
		Value:   round2(PercentChange(d.Current.Value, d.Previous.Value)),
	}

	for _, v := range db.Vehicles {
		switch v.Status {
		case schema.VehicleActive:
			d.ActiveVehicles++
		case schema.VehicleMaintenance:
			d.MaintenanceVehicles++
		}
	}
	for _, r := range db.Requests {
		if r.Status == schema.RequestPending {
			d.PendingRequests++
		}
	}
	return d
}

func sameMonth(t, monthStart time.Time) bool {
	return t.Year() == monthStart.Year() && t.Month() == monthStart.Month()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
