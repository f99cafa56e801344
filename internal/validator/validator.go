package validator

import (
	"reflect"
	"strings"

	"github.com/formlab/forms-service/internal/errors"
	"github.com/formlab/forms-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Re-export the shared error types so callers only import one package.
type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

// Validator is the main validator instance that combines struct-tag
// validation with the form and submission validators.
type Validator struct {
	structValidator     *validator.Validate
	formValidator       *FormValidator
	submissionValidator *SubmissionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:     structValidator,
		formValidator:       NewFormValidator(),
		submissionValidator: NewSubmissionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		return errors.ToValidationErrors(err)
	}
	return nil
}

// Form returns the form-definition validator
func (v *Validator) Form() *FormValidator {
	return v.formValidator
}

// Submission returns the submission validator
func (v *Validator) Submission() *SubmissionValidator {
	return v.submissionValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("form_type", validateFormType)
	validate.RegisterValidation("form_status", validateFormStatus)
	validate.RegisterValidation("field_kind", validateFieldKind)
	validate.RegisterValidation("dedupe_key", validateDedupeKey)

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
func validateFormType(fl validator.FieldLevel) bool {
	validTypes := []models.FormType{
		models.FormTypeGeneral,
		models.FormTypeSurvey,
		models.FormTypeAttendance,
		models.FormTypeQuiz,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateFormStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.FormStatus{
		models.StatusDraft,
		models.StatusPublished,
		models.StatusArchived,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

func validateFieldKind(fl validator.FieldLevel) bool {
	return models.FieldKind(fl.Field().String()).IsValid()
}

func validateDedupeKey(fl validator.FieldLevel) bool {
	value := models.DedupeKey(fl.Field().String())
	return value == models.DedupeByEmail || value == models.DedupeByStudentID
}
