package validator

import (
	"fmt"
	"strings"

	"github.com/formlab/forms-service/internal/errors"
	"github.com/formlab/forms-service/internal/models"
)

// FormValidator checks a form definition against the structural rules of
// the schema: identity of fields, option lists on choice kinds, and kind
// flags. All violations are collected, not just the first.
type FormValidator struct{}

// NewFormValidator creates a new form-definition validator
func NewFormValidator() *FormValidator {
	return &FormValidator{}
}

// ValidateDefinition validates a complete form schema.
func (v *FormValidator) ValidateDefinition(form *models.Form) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(form.Title) == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			"title", "is required", "required", form.Title))
	}

	if form.Type == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			"type", "is required", "required", form.Type))
	} else if !isFormType(form.Type) {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			"type", "must be a valid form type (general, survey, attendance, quiz)", "form_type", form.Type))
	}

	seen := make(map[string]bool, len(form.Fields))
	for i, field := range form.Fields {
		errs = append(errs, v.validateField(i, field, seen)...)
	}

	return errs
}

func (v *FormValidator) validateField(i int, field models.Field, seen map[string]bool) ValidationErrors {
	var errs ValidationErrors

	at := func(part string) string { return fmt.Sprintf("fields[%d].%s", i, part) }

	if field.ID == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			at("id"), "is required", "required", field.ID))
	} else if seen[field.ID] {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			at("id"), fmt.Sprintf("duplicate field identifier '%s'", field.ID), "unique_field_id", field.ID))
	}
	seen[field.ID] = true

	if strings.TrimSpace(field.Label) == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			at("label"), "is required", "required", field.Label))
	}

	if !field.Kind.IsValid() {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			at("kind"), "must be a supported field kind", "field_kind", field.Kind))
	}

	if field.Kind.IsChoice() && len(field.Options) == 0 {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			at("options"), "choice field requires a non-empty option list", "options_required", nil))
	}

	if field.Multiple && field.Kind != models.FieldDropdown {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			at("multiple"), "multiple selection is only valid on dropdown fields", "multiple_on_dropdown", field.Kind))
	}

	if field.Rules != nil {
		if field.Rules.Min != nil && field.Rules.Max != nil && *field.Rules.Min > *field.Rules.Max {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				at("rules"), "min cannot exceed max", "min_max", nil))
		}
		if field.Rules.MinSelections != nil && field.Rules.MaxSelections != nil &&
			*field.Rules.MinSelections > *field.Rules.MaxSelections {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				at("rules"), "minSelections cannot exceed maxSelections", "min_max", nil))
		}
	}

	if field.Quiz != nil && len(field.Options) > 0 {
		for _, idx := range field.Quiz.CorrectOptions {
			if idx < 0 || idx >= len(field.Options) {
				errs = append(errs, *errors.NewValidationErrorWithRule(
					at("quiz.correctOptions"),
					fmt.Sprintf("correct option index %d is out of range", idx),
					"option_index", idx))
			}
		}
	}

	return errs
}

func isFormType(t models.FormType) bool {
	switch t {
	case models.FormTypeGeneral, models.FormTypeSurvey, models.FormTypeAttendance, models.FormTypeQuiz:
		return true
	}
	return false
}
