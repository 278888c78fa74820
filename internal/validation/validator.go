// Package validation checks request shapes with go-playground/validator and
// reports failures as domain validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/freenote/freenote-server/internal/errors"
	"github.com/freenote/freenote-server/internal/notetree"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the note-specific tags registered:
//
//	nodekind  the wire name of a node variant (note, notebook)
//	userid    an opaque identity: no control characters, no surrounding spaces
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("nodekind", func(fl validator.FieldLevel) bool {
		_, err := notetree.ParseKind(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
		return validUserID(fl.Field().String())
	})

	return &Validator{v: v}
}

func validUserID(s string) bool {
	if s != strings.TrimSpace(s) {
		return false
	}
	return !strings.ContainsFunc(s, unicode.IsControl)
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to a single domain error whose
// details map each failing field to a readable message.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = message(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

// fixedMessages covers the tags whose message does not depend on a parameter.
var fixedMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"nodekind": "must be one of: note notebook",
	"userid":   "must not contain control characters or surrounding spaces",
}

func message(e validator.FieldError) string {
	if msg, ok := fixedMessages[e.Tag()]; ok {
		return msg
	}

	switch e.Tag() {
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
