package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// ErrInvalid matches every *Error via errors.Is.
var ErrInvalid = errors.New("validation failed")

// Error carries per-field validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

// Invalid builds an *Error for a single field.
func Invalid(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

// New returns a configured validator with the custom "money" tag registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// money: a finite, non-negative amount
	if err := v.RegisterValidation("money", moneyValidation); err != nil {
		panic(fmt.Sprintf("register money validation: %v", err))
	}

	return v
}

func moneyValidation(fl validatorv10.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		x := f.Float()
		return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() >= 0
	default:
		return false
	}
}

// Check runs struct validation and converts failures into *Error.
func Check(v *validatorv10.Validate, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return &Error{Fields: validationErrorsToMap(err)}
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
