package schema

// Employee status values.
const (
	EmployeeActive   = "ativo"
	EmployeeInactive = "inativo"
)

type Employee struct {
	ID           string `json:"id"`
	Name         string `json:"nome" validate:"required,min=3,max=120"`
	Registration string `json:"matricula" validate:"required,max=20"`
	Position     string `json:"cargo" validate:"required,max=80"`
	DepartmentID string `json:"departamentoId,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string `json:"telefone,omitempty" validate:"max=20"`
	Status       string `json:"status" validate:"required,oneof=ativo inativo"`
	HiredAt      string `json:"dataAdmissao,omitempty" validate:"omitempty,databr"`
}

type Department struct {
	ID      string `json:"id"`
	Name    string `json:"nome" validate:"required,max=120"`
	Acronym string `json:"sigla,omitempty" validate:"max=12"`
	Manager string `json:"responsavel,omitempty" validate:"max=120"`
	Phone   string `json:"telefone,omitempty" validate:"max=20"`
}

// Request status values.
const (
	RequestPending  = "pendente"
	RequestApproved = "aprovada"
	RequestRejected = "rejeitada"
	RequestDone     = "concluida"
)

// Request is a service request raised by a department.
type Request struct {
	ID           string `json:"id"`
	Title        string `json:"titulo" validate:"required,max=160"`
	Description  string `json:"descricao,omitempty" validate:"max=2000"`
	Requester    string `json:"solicitante" validate:"required,max=120"`
	DepartmentID string `json:"departamentoId,omitempty"`
	Priority     string `json:"prioridade" validate:"required,oneof=baixa media alta"`
	Status       string `json:"status" validate:"required,oneof=pendente aprovada rejeitada concluida"`
	Date         string `json:"data" validate:"required,databr"`
}
