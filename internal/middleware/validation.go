package middleware

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator is the shared validator instance configured with the
// domain-specific validation rules used by the HTTP handlers.
var Validator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("isodate", isISODate)
	v.RegisterValidation("exportformat", isExportFormat)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// isISODate validates a YYYY-MM-DD date string
func isISODate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // empty handled by required tag
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// isExportFormat validates the supported dataset export formats
func isExportFormat(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "csv", "xlsx":
		return true
	}
	return false
}

// ValidationErrorMessage converts a validator.FieldError into a readable message
func ValidationErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "exportformat":
		return "must be one of: csv, xlsx"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
