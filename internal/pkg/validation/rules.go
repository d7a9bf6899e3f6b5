// Package validation registers the custom binding tags used by request DTOs.
package validation

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// PhonePattern accepts digits with optional leading +, spaces, dashes, dots and parentheses
	PhonePattern = `^\+?[0-9 ()\-.]{7,20}$`

	// DateLayout is the calendar date format accepted by the date tag
	DateLayout = "2006-01-02"
)

var phoneRegexp = regexp.MustCompile(PhonePattern)

// RegisterCustomValidators adds the date and phone tags to v
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("date", validateDate); err != nil {
		return err
	}
	return v.RegisterValidation("phone", validatePhone)
}

// IsDate reports whether s is a valid YYYY-MM-DD calendar date
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsPhone reports whether s looks like a phone number
func IsPhone(s string) bool {
	return phoneRegexp.MatchString(s)
}

func validateDate(fl validator.FieldLevel) bool {
	return IsDate(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}
