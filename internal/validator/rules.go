package validator

import (
	"log"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"businessconnect_backend/internal/models"
)

// Senegal numbers: 9 digits starting with 7 (mobile) or 3 (landline), optional +221 / 00221 prefix.
var senegalPhoneRe = regexp.MustCompile(`^(?:\+221|00221)?[73]\d{8}$`)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-job-type", validateJobType)
	mustRegister("is-item-status", validateItemStatus)
	mustRegister("is-application-status", validateApplicationStatus)
	mustRegister("sn-phone", validateSenegalPhone)
}

// empty values pass; `required` handles presence

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.UserRole(value).IsValid()
}

func validateJobType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.JobType(value).IsValid()
}

func validateItemStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.ItemStatus(value).IsValid()
}

func validateApplicationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.ApplicationStatus(value).IsValid()
}

func validateSenegalPhone(fl validator.FieldLevel) bool {
	value := NormalizePhone(fl.Field().String())
	return value == "" || senegalPhoneRe.MatchString(value)
}

// NormalizePhone strips spaces, dots and dashes.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", ".", "", "-", "").Replace(strings.TrimSpace(phone))
}
