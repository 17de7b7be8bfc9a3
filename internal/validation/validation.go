// Package validation turns go-playground/validator failures into
// user-facing field errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "diarydesk/internal/errors"
)

// Validator validates structs tagged with `validate`. A field may carry a
// `message` tag that replaces the generic failure text.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator. It returns the first failing field as
// an *errors.ValidationError.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return apperrors.NewValidationError(fe.Field(), message(i, fe))
}

func message(i interface{}, fe validator.FieldError) string {
	if msg := tagMessage(reflect.TypeOf(i), fe.StructNamespace()); msg != "" {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please enter a valid email"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// tagMessage walks a namespace such as "noteInput.TodoItems[0].Text" and
// returns the message tag of the last field on the path.
func tagMessage(t reflect.Type, namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return ""
	}
	var msg string
	for _, part := range parts[1:] {
		for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return msg
		}
		name, _, _ := strings.Cut(part, "[")
		sf, ok := t.FieldByName(name)
		if !ok {
			return ""
		}
		msg = sf.Tag.Get("message")
		t = sf.Type
	}
	return msg
}
