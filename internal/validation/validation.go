// Package validation checks domain records against their struct tags and
// reports failures as a map of JSON field name to a message for the user.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the DD/MM/YYYY format used by every date field.
const DateLayout = "02/01/2006"

// ErrInvalid is matched by every *Error.
var ErrInvalid = errors.New("validation failed")

// Old (ABC-1234) and Mercosul (ABC1D23) plates.
var plateRe = regexp.MustCompile(`^[A-Z]{3}-?[0-9][A-Z0-9][0-9]{2}$`)

// Error carries one message per invalid field.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Field builds an Error for a single field.
func Field(name, msg string) *Error {
	return &Error{Fields: map[string]string{name: msg}}
}

// Validator wraps a configured validator.Validate.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("placa", func(fl validator.FieldLevel) bool {
		return ValidPlate(fl.Field().String())
	})
	_ = v.RegisterValidation("databr", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// ValidPlate reports whether s is a Brazilian licence plate, in either the
// old or the Mercosul format. Lower case is accepted.
func ValidPlate(s string) bool {
	return plateRe.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// Struct validates s. It returns nil or an *Error.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, seen := out.Fields[fe.Field()]; !seen {
			out.Fields[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("mínimo de %s caracteres", fe.Param())
		}
		return fmt.Sprintf("valor mínimo %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("máximo de %s caracteres", fe.Param())
		}
		return fmt.Sprintf("valor máximo %s", fe.Param())
	case "gt":
		return fmt.Sprintf("deve ser maior que %s", fe.Param())
	case "gte":
		return fmt.Sprintf("deve ser maior ou igual a %s", fe.Param())
	case "gtefield":
		return "deve ser maior ou igual ao valor inicial"
	case "email":
		return "e-mail inválido"
	case "oneof":
		return "valor deve ser um de: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "placa":
		return "placa inválida"
	case "databr":
		return "data deve estar no formato DD/MM/AAAA"
	case "datetime":
		return "horário inválido (HH:MM)"
	case "excludesall":
		return "não pode conter espaços"
	}
	return "valor inválido"
}
