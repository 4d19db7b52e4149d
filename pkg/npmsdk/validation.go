package npmsdk

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every argument check in the package. validator.Validate
// caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON tag names so errors name the argument the caller knows
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	return v
}

// validateArgs validates s and converts the first failing field into a typed
// error. Fields are checked in declaration order, so struct layout decides
// which missing argument gets reported.
func validateArgs(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}

	fe := validationErrs[0]
	return fieldError(rootField(fe.Field()), fmt.Sprint(fe.Value()), fe.Tag(), fe.Param())
}

// validateArg checks a single value against tag, naming it field on failure.
func validateArg(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}

	fe := validationErrs[0]
	return fieldError(field, fmt.Sprint(fe.Value()), fe.Tag(), fe.Param())
}

// rootField strips dive indices: "domain[0]" -> "domain".
func rootField(field string) string {
	if i := strings.IndexByte(field, '['); i >= 0 {
		return field[:i]
	}
	return field
}

func fieldError(field, value, tag, param string) error {
	switch tag {
	case "oneof":
		return &InvalidTypeError{Field: field, Value: value, Valid: strings.Fields(param)}
	case "required":
		return &MissingArgumentError{Field: field, Reason: fmt.Sprintf("%s is required", field)}
	case "min":
		return &MissingArgumentError{Field: field, Reason: fmt.Sprintf("%s must be at least %s", field, param)}
	case "max":
		return &MissingArgumentError{Field: field, Reason: fmt.Sprintf("%s must be at most %s", field, param)}
	default:
		return &MissingArgumentError{Field: field, Reason: fmt.Sprintf("%s failed validation for %s", field, tag)}
	}
}
