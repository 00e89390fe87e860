package schema

// Vehicle status values.
const (
	VehicleActive      = "ativo"
	VehicleMaintenance = "manutencao"
	VehicleInactive    = "inativo"
)

type Vehicle struct {
	ID           string  `json:"id"`
	Plate        string  `json:"placa" validate:"required,placa"`
	Model        string  `json:"modelo" validate:"required,max=80"`
	Brand        string  `json:"marca" validate:"required,max=60"`
	Year         int     `json:"ano" validate:"required,min=1950,max=2100"`
	Kind         string  `json:"tipo" validate:"required,max=40"`
	Status       string  `json:"status" validate:"required,oneof=ativo manutencao inativo"`
	DepartmentID string  `json:"departamentoId,omitempty"`
	FuelTypeID   string  `json:"combustivelId,omitempty"`
	Odometer     float64 `json:"quilometragem" validate:"gte=0"`
	Notes        string  `json:"observacoes,omitempty" validate:"max=500"`
}

// FuelType carries the current unit price used when valuing fuel records.
type FuelType struct {
	ID        string  `json:"id"`
	Name      string  `json:"nome" validate:"required,max=60"`
	UnitPrice float64 `json:"precoLitro" validate:"gt=0"`
}

// FuelRecord is one refuelling. Its value is computed from the fuel type's
// price at query time and is never stored.
type FuelRecord struct {
	ID         string  `json:"id"`
	VehicleID  string  `json:"veiculoId" validate:"required"`
	FuelTypeID string  `json:"combustivelId" validate:"required"`
	Date       string  `json:"data" validate:"required,databr"`
	Liters     float64 `json:"litros" validate:"gt=0"`
	Odometer   float64 `json:"quilometragem" validate:"gte=0"`
	Driver     string  `json:"motorista,omitempty" validate:"max=120"`
	Station    string  `json:"posto,omitempty" validate:"max=120"`
}

// Diary is a vehicle trip log entry.
type Diary struct {
	ID          string  `json:"id"`
	VehicleID   string  `json:"veiculoId" validate:"required"`
	Driver      string  `json:"motorista" validate:"required,max=120"`
	Date        string  `json:"data" validate:"required,databr"`
	Departure   string  `json:"horaSaida,omitempty" validate:"omitempty,datetime=15:04"`
	Return      string  `json:"horaRetorno,omitempty" validate:"omitempty,datetime=15:04"`
	OdometerOut float64 `json:"kmSaida" validate:"gte=0"`
	OdometerIn  float64 `json:"kmRetorno" validate:"omitempty,gtefield=OdometerOut"`
	Destination string  `json:"destino" validate:"required,max=200"`
	Purpose     string  `json:"finalidade,omitempty" validate:"max=500"`
}
