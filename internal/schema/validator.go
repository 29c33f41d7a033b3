package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError is the first failing field of a request body.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(optionalValue[string], Optional[string]{})
	v.RegisterCustomTypeFunc(optionalValue[int], Optional[int]{})
	v.RegisterCustomTypeFunc(optionalValue[time.Time], Optional[time.Time]{})
	v.RegisterCustomTypeFunc(optionalValue[ProjectType], Optional[ProjectType]{})
	v.RegisterCustomTypeFunc(optionalValue[ProjectStatus], Optional[ProjectStatus]{})
	v.RegisterCustomTypeFunc(optionalValue[TicketStatus], Optional[TicketStatus]{})
	v.RegisterCustomTypeFunc(optionalValue[TicketPriority], Optional[TicketPriority]{})

	return &Validator{validate: v}
}

// optionalValue exposes an Optional to the validator: a nil pointer when the
// key was absent, so omitnil skips it, otherwise the value. An explicit null
// validates as the zero value, which non-nullable fields reject.
func optionalValue[T any](field reflect.Value) any {
	o, ok := field.Interface().(Optional[T])
	if !ok || !o.Set {
		return (*T)(nil)
	}
	v := o.Value
	return &v
}

// Struct validates s and returns a *ValidationError for the first failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	return &ValidationError{
		Field:   fieldPath(fe.Namespace()),
		Message: message(fe),
	}
}

// fieldPath drops the struct name from a namespace like "CreateProjectInput.name".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		return "Must not be empty"
	case "oneof":
		opts := strings.Fields(fe.Param())
		quoted := make([]string, len(opts))
		for i, o := range opts {
			quoted[i] = "'" + o + "'"
		}
		return "Invalid enum value. Expected " + strings.Join(quoted, " | ")
	case "gt":
		return "Must be greater than " + fe.Param()
	}
	return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
}
