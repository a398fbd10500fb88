package utils

import (
	"caresync-service/internal/pkg/constvars"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("notblank", validateNotBlank)
	validate.RegisterValidation("fhirdate", validateFhirDate)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateNotBlank rejects strings that are empty after trimming whitespace.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateFhirDate accepts FHIR date values of the form YYYY-MM-DD.
func validateFhirDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(constvars.FhirBirthDateLayout, fl.Field().String())
	return err == nil
}
