// Package validator checks decoded request bodies against their validate tags
// and turns the first failure into a field validation error.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"precinct/internal/apperr"
	"precinct/internal/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields under their JSON names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = validate.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			return models.Severity(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("evidence_type", func(fl validator.FieldLevel) bool {
			return models.RefType(fl.Field().String()).IsEvidence()
		})
	})
	return validate
}

// ValidateStruct validates a struct based on validate tags
func ValidateStruct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Validation(err.Error())
	}
	fe := fieldErrs[0]
	return apperr.FieldValidation(fieldPath(fe), message(fe))
}

// RegisterStructValidation adds a cross-field rule for the given struct types
func RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	instance().RegisterStructValidation(fn, types...)
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if err := instance().Var(email, "required,email"); err != nil {
		return apperr.FieldValidation("email", "email must be a valid email")
	}
	return nil
}

// fieldPath drops the struct name from the namespace, so nested fields read
// as "suspects[0].type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required for this type", field)
	case "required_without":
		return fmt.Sprintf("%s is required when %s is missing", field, strings.ToLower(fe.Param()))
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", field, strings.ToLower(fe.Param()))
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "severity":
		return fmt.Sprintf("%s must be one of: LEVEL3, LEVEL2, LEVEL1, CRITICAL", field)
	case "evidence_type":
		return fmt.Sprintf("%s must be an evidence type", field)
	case "vehicle_ident":
		return "A vehicle carries either a license plate or a VIN, not both"
	}
	return fmt.Sprintf("%s is invalid", field)
}

// SanitizeString sanitizes a string by removing potentially dangerous characters
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(SanitizeString(email))
}
