// Package validation holds request size limits and struct-tag validation for
// request DTOs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "contractdesk/pkg/domain-errors"
)

// Size limits applied before any domain validation.
const (
	MaxNameLength        = 200
	MaxShortTextLength   = 100
	MaxTermsLength       = 20_000
	MaxDocumentLength    = 1_000_000
	MaxCommentLength     = 10_000
	MaxDescriptionLength = 20_000
	MaxTags              = 20
	MaxTagLength         = 50
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates v's `validate` tags and returns a CodeValidation error
// describing the first failing field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	return dErrors.New(dErrors.CodeValidation, describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "uuid":
		return field + " must be a valid id"
	default:
		return field + " is invalid"
	}
}
