package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/roombooking/internal/application"
)

// Validator adapts go-playground/validator to echo and reports failures as
// application validation errors keyed by the query or JSON name.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds the echo validator used by the router.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"query", "param", "json"} {
			name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	vErr := &application.ValidationError{}
	for _, fe := range fieldErrs {
		vErr.Fields = append(vErr.Fields, application.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return vErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("Invalid %s format, expected %s", fe.Field(), fe.Param())
	case "number":
		return fmt.Sprintf("Invalid %s, expected a non-negative integer", fe.Field())
	default:
		return fmt.Sprintf("Invalid value for %s", fe.Field())
	}
}
