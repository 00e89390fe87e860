// Package services implements the back-office operations on top of the
// database repository: validated CRUD per collection, the admin user
// registry, the audit log and the dashboard.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/stats"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

type Services struct {
	Vehicles    *Resource[schema.Vehicle, VehicleView]
	Employees   *Resource[schema.Employee, EmployeeView]
	Departments *Resource[schema.Department, schema.Department]
	FuelTypes   *Resource[schema.FuelType, schema.FuelType]
	FuelRecords *Resource[schema.FuelRecord, FuelRecordView]
	Requests    *Resource[schema.Request, RequestView]
	Diaries     *Resource[schema.Diary, DiaryView]
	Users       *UserService
	Logs        *LogService
	Dashboard   *DashboardService
}

func New(repo *database.Repository, log *slog.Logger, now func() time.Time) *Services {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	log = log.With(slog.String("component", "services"))
	v := validation.New()

	return &Services{
		Vehicles:    NewResource(repo, database.Vehicles, v, log, vehicleOptions()),
		Employees:   NewResource(repo, database.Employees, v, log, employeeOptions()),
		Departments: NewResource(repo, database.Departments, v, log, departmentOptions()),
		FuelTypes:   NewResource(repo, database.FuelTypes, v, log, fuelTypeOptions()),
		FuelRecords: NewResource(repo, database.FuelRecords, v, log, fuelRecordOptions(now)),
		Requests:    NewResource(repo, database.Requests, v, log, requestOptions()),
		Diaries:     NewResource(repo, database.Diaries, v, log, diaryOptions(now)),
		Users:       NewUserService(repo, v, log, now),
		Logs:        &LogService{repo: repo},
		Dashboard:   &DashboardService{repo: repo, now: now},
	}
}

// DashboardService computes stats.Dashboard from the stored data.
type DashboardService struct {
	repo *database.Repository
	now  func() time.Time
}

// Get builds the dashboard for the month of ref; a zero ref means today.
func (s *DashboardService) Get(ctx context.Context, ref time.Time) (stats.Dashboard, error) {
	db, err := s.repo.Load(ctx)
	if err != nil {
		return stats.Dashboard{}, err
	}
	now := s.now()
	if ref.IsZero() {
		ref = now
	}
	return stats.Compute(db, ref, now), nil
}
