package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-gestao/pkg/schema"
)

func TestValidPlate(t *testing.T) {
	tests := []struct {
		plate string
		want  bool
	}{
		{"ABC-1234", true},
		{"ABC1234", true},
		{"abc1d23", true},
		{"BRA2E19", true},
		{"AB-1234", false},
		{"ABCD123", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.plate, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPlate(tt.plate))
		})
	}
}

func TestValidator_Vehicle(t *testing.T) {
	v := New()

	ok := schema.Vehicle{
		Plate:  "ABC1D23",
		Model:  "Gol",
		Brand:  "VW",
		Year:   2020,
		Kind:   "carro",
		Status: schema.VehicleActive,
	}
	require.NoError(t, v.Struct(ok))

	bad := ok
	bad.Plate = "12345"
	bad.Status = "quebrado"
	bad.Model = ""

	err := v.Struct(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"placa":  "placa inválida",
		"status": "valor deve ser um de: ativo, manutencao, inativo",
		"modelo": "campo obrigatório",
	}, verr.Fields)
}

func TestValidator_Dates(t *testing.T) {
	v := New()

	rec := schema.FuelRecord{VehicleID: "1", FuelTypeID: "1", Date: "31/12/2024", Liters: 40}
	require.NoError(t, v.Struct(rec))

	rec.Date = "2024-12-31"
	rec.Liters = 0
	var verr *Error
	require.ErrorAs(t, v.Struct(rec), &verr)
	assert.Equal(t, "data deve estar no formato DD/MM/AAAA", verr.Fields["data"])
	assert.Equal(t, "deve ser maior que 0", verr.Fields["litros"])
}

func TestValidator_DiaryOdometer(t *testing.T) {
	v := New()
	d := schema.Diary{
		VehicleID:   "1",
		Driver:      "João",
		Date:        "01/02/2025",
		Departure:   "08:00",
		OdometerOut: 1000,
		OdometerIn:  900,
		Destination: "Centro",
	}
	var verr *Error
	require.ErrorAs(t, v.Struct(d), &verr)
	assert.Contains(t, verr.Fields, "kmRetorno")

	d.OdometerIn = 1100
	assert.NoError(t, v.Struct(d))
}

func TestError_Message(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "validation failed: a: one; b: two", err.Error())
	assert.Equal(t, "validation failed: nome: x", Field("nome", "x").Error())
}
