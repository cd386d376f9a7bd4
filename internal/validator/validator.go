package validator

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/learnity/registration-service/internal/models"
)

// Validator wraps struct-tag validation plus the custom rules the
// registration payloads need.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate runs the struct validation and converts failures into the
// field-level error collection handlers return to clients.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if converted := ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("application_status", validateApplicationStatus)
	validate.RegisterValidation("password_strength", validatePasswordStrength)
	validate.RegisterValidation("hourly_rate", validateHourlyRate)
	validate.RegisterValidation("subject_name", validateSubjectName)
	validate.RegisterValidation("adult_birth_date", validateAdultBirthDate)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions

func validateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleStudent,
		models.RolePendingTeacher,
		models.RoleTeacher,
		models.RoleRejectedTeacher,
		models.RoleAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func validateApplicationStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.ApplicationStatus{
		models.ApplicationPending,
		models.ApplicationApproved,
		models.ApplicationRejected,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

func validatePasswordStrength(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) < 8 {
		return false
	}

	var hasLetter, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func validateHourlyRate(fl validator.FieldLevel) bool {
	rate := fl.Field().Float()
	return rate >= 0 && rate <= 1000
}

func validateSubjectName(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	return len(value) >= 2 && len(value) <= 100
}

func validateAdultBirthDate(fl validator.FieldLevel) bool {
	var birthDate time.Time
	switch value := fl.Field().Interface().(type) {
	case time.Time:
		birthDate = value
	case string:
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			return false
		}
		birthDate = parsed
	default:
		return false
	}
	return time.Since(birthDate) >= 18*365*24*time.Hour
}
