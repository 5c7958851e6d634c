// Package validate wraps go-playground/validator so callers get every
// field error for a struct in one pass, with human-readable messages
// keyed by the field's JSON name.
package validate

import (
	"fmt"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// FieldErrors maps a field's JSON name to its validation message.
// It is a normal return value, not an exception: an empty map means
// the input was accepted.
type FieldErrors map[string]string

// Error implements the error interface so FieldErrors can travel
// through error returns when convenient.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// New returns a validator configured to report fields by their JSON names.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns all field errors at once. Validation is
// total per struct: it never stops at the first failing field, so the
// caller can surface every problem simultaneously.
func Struct(v *validatorv10.Validate, s interface{}) FieldErrors {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	out := FieldErrors{}
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		out["_"] = err.Error()
		return out
	}

	for _, fe := range ve {
		out[fe.Field()] = message(fe)
	}
	return out
}

// message renders one field error the way the storefront UI words them.
func message(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("select at least %s", fe.Param())
		default:
			return fmt.Sprintf("must be at least %s", fe.Param())
		}
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		if strings.Contains(fe.Param(), "'") {
			return "is not a valid selection"
		}
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be %s or greater", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "dive":
		return "contains an invalid entry"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
