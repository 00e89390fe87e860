package services

import (
	"math"
	"strings"
	"time"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/stats"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

type VehicleView struct {
	schema.Vehicle
	DepartmentName string `json:"departamentoNome"`
	FuelTypeName   string `json:"combustivelNome"`
}

type FuelRecordView struct {
	schema.FuelRecord
	VehicleName  string  `json:"veiculoNome"`
	FuelTypeName string  `json:"combustivelNome"`
	Value        float64 `json:"valor"`
	DateISO      string  `json:"dataISO"`
}

type DiaryView struct {
	schema.Diary
	VehicleName string  `json:"veiculoNome"`
	Distance    float64 `json:"kmRodados"`
	DateISO     string  `json:"dataISO"`
}

func vehicleOptions() ResourceOptions[schema.Vehicle, VehicleView] {
	return ResourceOptions[schema.Vehicle, VehicleView]{
		Normalize: func(v *schema.Vehicle) {
			v.Plate = strings.ToUpper(strings.TrimSpace(v.Plate))
			v.Model = strings.TrimSpace(v.Model)
			v.Brand = strings.TrimSpace(v.Brand)
		},
		Checks: []database.Check[schema.Vehicle]{
			func(db *database.StoredDatabase, v schema.Vehicle) error {
				plate := strings.ReplaceAll(v.Plate, "-", "")
				for _, other := range db.Vehicles {
					if other.ID != v.ID && strings.ReplaceAll(other.Plate, "-", "") == plate {
						return validation.Field("placa", "placa já cadastrada")
					}
				}
				return nil
			},
		},
		Search: func(v schema.Vehicle) []string {
			return []string{v.Plate, v.Model, v.Brand, v.Kind}
		},
		Fields: func(v schema.Vehicle) map[string]string {
			return map[string]string{"status": v.Status, "departamentoId": v.DepartmentID, "tipo": v.Kind}
		},
		View: func(res *Resolver, v schema.Vehicle) VehicleView {
			view := VehicleView{Vehicle: v, DepartmentName: NotInformed, FuelTypeName: NotInformed}
			if res != nil {
				view.DepartmentName = res.DepartmentName(v.DepartmentID)
				view.FuelTypeName = res.FuelTypeName(v.FuelTypeID)
			}
			return view
		},
	}
}

func fuelTypeOptions() ResourceOptions[schema.FuelType, schema.FuelType] {
	return ResourceOptions[schema.FuelType, schema.FuelType]{
		Normalize: func(f *schema.FuelType) { f.Name = strings.TrimSpace(f.Name) },
		Checks: []database.Check[schema.FuelType]{
			func(db *database.StoredDatabase, f schema.FuelType) error {
				for _, other := range db.FuelTypes {
					if other.ID != f.ID && strings.EqualFold(other.Name, f.Name) {
						return validation.Field("nome", "combustível já cadastrado")
					}
				}
				return nil
			},
		},
		Search: func(f schema.FuelType) []string { return []string{f.Name} },
	}
}

func fuelRecordOptions(now func() time.Time) ResourceOptions[schema.FuelRecord, FuelRecordView] {
	return ResourceOptions[schema.FuelRecord, FuelRecordView]{
		Search: func(r schema.FuelRecord) []string { return []string{r.Driver, r.Station, r.Date} },
		Fields: func(r schema.FuelRecord) map[string]string {
			fields := map[string]string{"veiculoId": r.VehicleID, "combustivelId": r.FuelTypeID}
			// DD/MM/YYYY -> MM/YYYY
			if len(r.Date) == len(validation.DateLayout) {
				fields["mes"] = r.Date[3:]
			}
			return fields
		},
		View: func(res *Resolver, r schema.FuelRecord) FuelRecordView {
			view := FuelRecordView{
				FuelRecord:   r,
				VehicleName:  NotInformed,
				FuelTypeName: NotInformed,
				DateISO:      stats.ToISO(r.Date, now()),
			}
			if res != nil {
				view.VehicleName = res.VehicleName(r.VehicleID)
				view.FuelTypeName = res.FuelTypeName(r.FuelTypeID)
				view.Value = math.Round(r.Liters*res.FuelPrice(r.FuelTypeID)*100) / 100
			}
			return view
		},
	}
}

func diaryOptions(now func() time.Time) ResourceOptions[schema.Diary, DiaryView] {
	return ResourceOptions[schema.Diary, DiaryView]{
		Normalize: func(d *schema.Diary) { d.Destination = strings.TrimSpace(d.Destination) },
		Search: func(d schema.Diary) []string {
			return []string{d.Driver, d.Destination, d.Purpose, d.Date}
		},
		Fields: func(d schema.Diary) map[string]string {
			return map[string]string{"veiculoId": d.VehicleID, "data": d.Date}
		},
		View: func(res *Resolver, d schema.Diary) DiaryView {
			view := DiaryView{Diary: d, VehicleName: NotInformed, DateISO: stats.ToISO(d.Date, now())}
			if res != nil {
				view.VehicleName = res.VehicleName(d.VehicleID)
			}
			if d.OdometerIn > d.OdometerOut {
				view.Distance = d.OdometerIn - d.OdometerOut
			}
			return view
		},
	}
}
