package services

import (
	"strings"

	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/validation"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

type EmployeeView struct {
	schema.Employee
	DepartmentName string `json:"departamentoNome"`
}

type RequestView struct {
	schema.Request
	DepartmentName string `json:"departamentoNome"`
}

func employeeOptions() ResourceOptions[schema.Employee, EmployeeView] {
	return ResourceOptions[schema.Employee, EmployeeView]{
		Normalize: func(e *schema.Employee) {
			e.Name = strings.TrimSpace(e.Name)
			e.Registration = strings.TrimSpace(e.Registration)
			e.Email = strings.ToLower(strings.TrimSpace(e.Email))
		},
		Checks: []database.Check[schema.Employee]{
			func(db *database.StoredDatabase, e schema.Employee) error {
				for _, other := range db.Employees {
					if other.ID != e.ID && other.Registration == e.Registration {
						return validation.Field("matricula", "matrícula já cadastrada")
					}
				}
				return nil
			},
		},
		Search: func(e schema.Employee) []string {
			return []string{e.Name, e.Registration, e.Position, e.Email}
		},
		Fields: func(e schema.Employee) map[string]string {
			return map[string]string{"status": e.Status, "departamentoId": e.DepartmentID}
		},
		View: func(res *Resolver, e schema.Employee) EmployeeView {
			view := EmployeeView{Employee: e, DepartmentName: NotInformed}
			if res != nil {
				view.DepartmentName = res.DepartmentName(e.DepartmentID)
			}
			return view
		},
	}
}

func departmentOptions() ResourceOptions[schema.Department, schema.Department] {
	return ResourceOptions[schema.Department, schema.Department]{
		Normalize: func(d *schema.Department) {
			d.Name = strings.TrimSpace(d.Name)
			d.Acronym = strings.ToUpper(strings.TrimSpace(d.Acronym))
		},
		Checks: []database.Check[schema.Department]{
			func(db *database.StoredDatabase, d schema.Department) error {
				for _, other := range db.Departments {
					if other.ID != d.ID && strings.EqualFold(other.Name, d.Name) {
						return validation.Field("nome", "departamento já cadastrado")
					}
				}
				return nil
			},
		},
		Search: func(d schema.Department) []string { return []string{d.Name, d.Acronym, d.Manager} },
	}
}

func requestOptions() ResourceOptions[schema.Request, RequestView] {
	return ResourceOptions[schema.Request, RequestView]{
		Normalize: func(r *schema.Request) { r.Title = strings.TrimSpace(r.Title) },
		Search: func(r schema.Request) []string {
			return []string{r.Title, r.Description, r.Requester}
		},
		Fields: func(r schema.Request) map[string]string {
			return map[string]string{"status": r.Status, "prioridade": r.Priority, "departamentoId": r.DepartmentID}
		},
		View: func(res *Resolver, r schema.Request) RequestView {
			view := RequestView{Request: r, DepartmentName: NotInformed}
			if res != nil {
				view.DepartmentName = res.DepartmentName(r.DepartmentID)
			}
			return view
		},
	}
}
